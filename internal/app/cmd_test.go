package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"引数なしはserve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"worker", []string{"worker"}, CommandWorker},
		{"migrate", []string{"migrate", "down"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"不明なコマンドはserve", []string{"unknown"}, CommandServe},
		{"余分な引数は無視", []string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    MigrateArgs
		wantErr bool
	}{
		{"引数なしはup", nil, MigrateArgs{Action: MigrateUp}, false},
		{"up", []string{"up"}, MigrateArgs{Action: MigrateUp}, false},
		{"downの既定は1件", []string{"down"}, MigrateArgs{Action: MigrateDown, Steps: 1}, false},
		{"down件数指定", []string{"down", "3"}, MigrateArgs{Action: MigrateDown, Steps: 3}, false},
		{"version", []string{"version"}, MigrateArgs{Action: MigrateVersion}, false},
		{"down件数が0", []string{"down", "0"}, MigrateArgs{}, true},
		{"down件数が数値でない", []string{"down", "all"}, MigrateArgs{}, true},
		{"不明な操作", []string{"force"}, MigrateArgs{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMigrateArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMigrateArgs(%v) should fail", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMigrateArgs(%v) error = %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("ParseMigrateArgs(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}
