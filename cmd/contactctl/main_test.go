package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formArgs(endpoint string) []string {
	return []string{
		"--endpoint", endpoint,
		"--name", "Jane Doe",
		"--phone", "+48 22 490 80 00",
		"--email", "jane@example.com",
		"--department", "LPG Department",
		"--message", "Please call me back",
	}
}

func TestRun_Success(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if fhs := r.MultipartForm.File["attachment"]; len(fhs) > 0 {
				gotType = fhs[0].Header.Get("Content-Type")
			}
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Email sent successfully","data":"msg-7"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("delivery window: mornings\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(append(formArgs(srv.URL), "--attach", path), &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Email sent successfully. We will contact you soon.")
	assert.Contains(t, stdout.String(), "msg-7")
	assert.Equal(t, "text/plain", gotType)
}

func TestRun_CSVAttachmentSentAsText(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if fhs := r.MultipartForm.File["attachment"]; len(fhs) > 0 {
				gotType = fhs[0].Header.Get("Content-Type")
			}
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Email sent successfully"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "order.txt")
	require.NoError(t, os.WriteFile(path, []byte("item,qty\nvalve,2\nhose,1\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(append(formArgs(srv.URL), "--attach", path), &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "text/plain", gotType)
}

func TestRun_InvalidInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := formArgs("http://127.0.0.1:1")
	args = append(args, "--email", "not-an-email")

	code := run(args, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "email: Invalid email address")
}

func TestRun_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"reCAPTCHA token is required"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(formArgs(srv.URL), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "reCAPTCHA token is required")
}

func TestRun_EnvEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Email sent successfully"}`))
	}))
	defer srv.Close()
	t.Setenv("CONTACTCTL_ENDPOINT", srv.URL)

	var stdout, stderr bytes.Buffer
	code := run(formArgs("")[2:], &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--nope"}, &stdout, &stderr))
}
