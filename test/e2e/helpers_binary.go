//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const jwtSecret = "e2e-signing-secret"

// hydroServer manages a running hydro server process.
type hydroServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	logFile *os.File
}

// startHydro launches the hydro binary on dataDir and waits for it to
// become healthy. hydro is configured entirely via environment variables.
func startHydro(t *testing.T, dataDir string) *hydroServer {
	t.Helper()

	if hydroBin == "" {
		t.Skip("hydro binary not available (set HYDRO_BIN or add to PATH)")
	}

	port := freePort(t)
	cmd := exec.Command(hydroBin)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("HYDRO_PORT=%d", port),
		"HYDRO_DB_PATH="+filepath.Join(dataDir, "hydro.db"),
		"HYDRO_JWT_SECRET="+jwtSecret,
		"HYDRO_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"), // skip YAML file
		"HYDRO_LOG_LEVEL=debug",
	)

	lf, err := os.OpenFile(filepath.Join(dataDir, "hydro.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start hydro: %v", err)
	}

	s := &hydroServer{
		cmd:     cmd,
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		logFile: lf,
	}
	t.Cleanup(s.stop)

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("hydro not healthy: %v", err)
	}
	return s
}

// stop sends SIGINT and waits for a graceful exit. Safe to call twice.
func (s *hydroServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
	s.logFile.Close()
}

func (s *hydroServer) baseURL() string {
	return "http://" + s.address
}

func (s *hydroServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/api/v1/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("hydro not healthy after %s", timeout)
}

// call sends a request as user and decodes a JSON response into out when
// out is non-nil. It returns the status code.
func (s *hydroServer) call(t *testing.T, user, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.baseURL()+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// token signs a short-lived HS256 token for user.
func token(t *testing.T, user string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
