// Command contactctl submits the DanskeGas contact form from a terminal.
//
// Settings come from flags, then CONTACTCTL_* environment variables, then an
// optional contactctl.yaml in the working directory.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"danskegas-backend/pkg/formclient"
	"danskegas-backend/pkg/logger"
	"danskegas-backend/pkg/security"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultEndpoint = "http://localhost:8080/api/send-email"

type consoleNotifier struct {
	out, errOut io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintln(n.errOut, "error:", msg) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	v, err := loadSettings(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if v.GetBool("verbose") {
		logger.Init("debug", false)
		defer logger.Sync()
	}

	form := &formclient.Form{
		FullName:   v.GetString("name"),
		Phone:      v.GetString("phone"),
		Email:      v.GetString("email"),
		Department: v.GetString("department"),
		Comment:    v.GetString("message"),
	}
	if path := v.GetString("attach"); path != "" {
		att, err := readAttachment(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		form.Attachment = att
	}

	opts := []formclient.Option{
		formclient.WithHTTPClient(&http.Client{Timeout: v.GetDuration("timeout")}),
		formclient.WithNotifier(consoleNotifier{out: stdout, errOut: stderr}),
		formclient.WithLogger(logger.Log),
		formclient.WithStateHook(func(s formclient.State) {
			logger.Log.Debug("state", zap.String("state", string(s)))
		}),
	}
	if token := v.GetString("captcha-token"); token != "" {
		opts = append(opts, formclient.WithCaptcha(formclient.StaticToken(token)))
	}

	c := formclient.New(v.GetString("endpoint"), opts...)
	out, err := c.Submit(context.Background(), form)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch out.State {
	case formclient.StateSucceeded:
		if out.MessageID != "" {
			fmt.Fprintln(stdout, "message id:", out.MessageID)
		}
		return 0
	case formclient.StateInvalid:
		fields := make([]string, 0, len(out.FieldErrors))
		for f := range out.FieldErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(stderr, "%s: %s\n", f, out.FieldErrors[f])
		}
		return 1
	default:
		return 1
	}
}

func loadSettings(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("contactctl", pflag.ContinueOnError)
	fs.String("endpoint", defaultEndpoint, "contact endpoint URL")
	fs.String("name", "", "full name")
	fs.String("phone", "", "phone number")
	fs.String("email", "", "email address")
	fs.String("department", "", "department, e.g. \"LPG Department\"")
	fs.String("message", "", "message text")
	fs.String("attach", "", "path of a file to attach")
	fs.String("captcha-token", "", "reCAPTCHA token obtained from the site")
	fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.BoolP("verbose", "v", false, "log state transitions")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("CONTACTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("contactctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read contactctl.yaml: %w", err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// readAttachment loads path and labels it with its sniffed content type.
func readAttachment(path string) (*formclient.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > security.MaxAttachmentSize {
		return nil, fmt.Errorf("attachment: %s", security.MsgTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &formclient.Attachment{
		Name:        filepath.Base(path),
		ContentType: security.AttachmentContentType(data),
		Data:        data,
	}, nil
}
