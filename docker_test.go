package internhub_test

import (
	"os"
	"strings"
	"testing"
)

func readRepoFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("%s の読み込みに失敗: %v", name, err)
	}
	return string(data)
}

// dockerfileStages はFROM行をステージ順に返す。
func dockerfileStages(content string) []string {
	var stages []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "FROM ") {
			stages = append(stages, trimmed)
		}
	}
	return stages
}

func TestDockerfile(t *testing.T) {
	content := readRepoFile(t, "Dockerfile")

	stages := dockerfileStages(content)
	if len(stages) < 2 {
		t.Fatalf("マルチステージビルドになっていない: %v", stages)
	}
	if !strings.HasPrefix(stages[0], "FROM golang:") {
		t.Errorf("ビルドステージがGoイメージではない: %s", stages[0])
	}
	if last := stages[len(stages)-1]; !strings.Contains(last, "distroless") || !strings.Contains(last, "nonroot") {
		t.Errorf("実行ステージはdistroless nonrootであること: %s", last)
	}

	for _, want := range []string{
		"./cmd/internhub",
		`ENTRYPOINT ["/app/internhub"]`,
		`CMD ["serve"]`,
		`"healthcheck"`,
		"UPLOAD_DIR=",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Dockerfile に %q が含まれていない", want)
		}
	}
}

func TestDockerCompose_Services(t *testing.T) {
	content := readRepoFile(t, "docker-compose.yml")

	tests := []struct {
		service string
		want    []string
		notWant []string
	}{
		{
			service: "db",
			want:    []string{"image: postgres:", "pg_isready", "- backend"},
			notWant: []string{"- external"},
		},
		{
			service: "migrate",
			want:    []string{`["migrate", "up"]`, "service_healthy"},
			notWant: []string{"- external", "ports:"},
		},
		{
			service: "api",
			want:    []string{`["serve"]`, "service_completed_successfully", "uploads:/app/uploads", "- backend", "- external"},
		},
		{
			service: "worker",
			want:    []string{`["worker"]`, "SESSION_CLEANUP_INTERVAL", "service_completed_successfully"},
			notWant: []string{"- external", "ports:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			block := composeServiceBlock(content, tt.service)
			if block == "" {
				t.Fatalf("サービス %q が定義されていない", tt.service)
			}
			for _, w := range tt.want {
				if !strings.Contains(block, w) {
					t.Errorf("%s に %q が含まれていない", tt.service, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(block, nw) {
					t.Errorf("%s に %q が含まれている", tt.service, nw)
				}
			}
		})
	}
}

func TestDockerCompose_BackendNetworkIsInternal(t *testing.T) {
	content := readRepoFile(t, "docker-compose.yml")

	idx := strings.Index(content, "\nnetworks:")
	if idx < 0 {
		t.Fatal("トップレベルの networks が定義されていない")
	}
	networks := content[idx:]
	backend := strings.Index(networks, "backend:")
	if backend < 0 || !strings.Contains(networks[backend:], "internal: true") {
		t.Error("backend ネットワークに internal: true が設定されていない")
	}
}

// composeServiceBlock はservices配下の指定サービスの定義部分を返す。
func composeServiceBlock(content, name string) string {
	var b strings.Builder
	in := false
	for _, line := range strings.Split(content, "\n") {
		switch {
		case line != "" && !strings.HasPrefix(line, " "):
			in = false
		case strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "   "):
			in = strings.TrimSpace(line) == name+":"
			continue
		}
		if in {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
