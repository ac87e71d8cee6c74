package usecase

import (
	"context"

	"danskegas-backend/internal/domain"
	"danskegas-backend/pkg/security/antivirus"
)

// pinger is implemented by dependencies that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

type healthUsecase struct {
	captchaEnabled bool
	emailProvider  string
	scanner        antivirus.Scanner
}

func NewHealthUsecase(captchaEnabled bool, emailProvider string, scanner antivirus.Scanner) domain.HealthUsecase {
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	return &healthUsecase{
		captchaEnabled: captchaEnabled,
		emailProvider:  emailProvider,
		scanner:        scanner,
	}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	captcha := "disabled"
	if u.captchaEnabled {
		captcha = "enabled"
	}
	status := map[string]string{
		"status":         "ok",
		"captcha":        captcha,
		"email_provider": u.emailProvider,
		"antivirus":      u.scanner.Name(),
	}

	if p, ok := u.scanner.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["antivirus"] = u.scanner.Name() + ": unreachable"
		}
	}
	return status
}
