package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/storage"
)

// Notifier delivers a one-time code to a user. Production deployments plug
// in an email provider; the default implementation logs the code for local
// development.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogNotifier writes codes to the structured log instead of sending email.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("one-time code issued",
		slog.String("email", email),
		slog.String("code", code))
	return nil
}

// OTPStore is the persistence the OTP flow needs.
type OTPStore interface {
	storage.UserStore
	storage.OTPStore
}

// OTPService implements the email one-time-password login: a short random
// code is stored hashed with an expiry, delivered out of band, and exchanged
// exactly once for a session token.
type OTPService struct {
	store    OTPStore
	notifier Notifier
	tokens   *TokenManager
	logger   *slog.Logger
	codeTTL  time.Duration
}

// NewOTPService creates the OTP login service.
func NewOTPService(store OTPStore, notifier Notifier, tokens *TokenManager, logger *slog.Logger, codeTTL time.Duration) *OTPService {
	if logger == nil {
		logger = slog.Default()
	}
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &OTPService{store: store, notifier: notifier, tokens: tokens, logger: logger, codeTTL: codeTTL}
}

// SendCode issues a fresh code for the email, replacing any outstanding one.
func (s *OTPService) SendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return domain.ErrValidation("a valid email address is required")
	}

	code, err := generateCode()
	if err != nil {
		return domain.ErrPersistence("generate code", err)
	}

	if err := s.store.SaveOTP(ctx, email, hashCode(code), time.Now().UTC().Add(s.codeTTL)); err != nil {
		return domain.ErrPersistence("store code", err)
	}

	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return domain.ErrPersistence("deliver code", err)
	}

	s.logger.Info("otp sent", slog.String("email", email))
	return nil
}

// VerifyCode exchanges a valid code for a session token and the user id,
// creating the user on first login. Wrong, expired, and re-used codes all
// fail the same way.
func (s *OTPService) VerifyCode(ctx context.Context, email, code string) (token, userID string, err error) {
	email = normalizeEmail(email)
	if !validEmail(email) || code == "" {
		return "", "", domain.ErrUnauthorized("invalid email or code")
	}

	ok, err := s.store.ConsumeOTP(ctx, email, hashCode(code), time.Now().UTC())
	if err != nil {
		return "", "", domain.ErrPersistence("verify code", err)
	}
	if !ok {
		s.logger.Warn("otp verification failed", slog.String("email", email))
		return "", "", domain.ErrUnauthorized("invalid email or code")
	}

	userID, err = s.store.GetOrCreateUserByEmail(ctx, email)
	if err != nil {
		return "", "", domain.ErrPersistence("resolve user", err)
	}

	token, err = s.tokens.Issue(userID, email)
	if err != nil {
		return "", "", domain.ErrPersistence("issue token", err)
	}

	s.logger.Info("otp verified", slog.String("email", email), slog.String("user_id", userID))
	return token, userID, nil
}

// generateCode returns a 6-digit numeric code with uniform distribution.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashCode hashes a code for storage so the plain code never persists.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.Contains(email, " ")
}
