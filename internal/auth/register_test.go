package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/orderhub-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testTokenConfig = config.TokenConfig{
	EmailConfirmTTL:  time.Hour,
	PasswordResetTTL: time.Hour,
}

type accountsFixture struct {
	client   *db.Client
	conn     *gorm.DB
	register RegisterService
	recovery RecoveryService
	account  AccountService
}

func newAccountsFixture(t *testing.T) accountsFixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	notifier, err := notifications.NewNotifier(outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)

	register, err := NewRegisterService(RegisterServiceParams{
		DB: client, Notifier: notifier, PasswordConfig: testPasswordConfig, TokenConfig: testTokenConfig,
	})
	require.NoError(t, err)
	recovery, err := NewRecoveryService(RecoveryServiceParams{
		DB: client, Notifier: notifier, PasswordConfig: testPasswordConfig, TokenConfig: testTokenConfig,
	})
	require.NoError(t, err)
	account, err := NewAccountService(client, testPasswordConfig)
	require.NoError(t, err)

	return accountsFixture{client: client, conn: conn, register: register, recovery: recovery, account: account}
}

// lastEmail returns the most recently queued email_requested payload.
func (f accountsFixture) lastEmail(t *testing.T) payloads.EmailRequestedEvent {
	t.Helper()
	var row models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventEmailRequested).Order("rowid DESC").First(&row).Error)
	envelope, err := outbox.DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	var event payloads.EmailRequestedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &event))
	return event
}

func (f accountsFixture) countEmails(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventEmailRequested).Count(&count).Error)
	return count
}

// mailedToken pulls the token line out of a rendered template body.
func mailedToken(t *testing.T, body string) string {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 48 && !strings.Contains(line, " ") {
			return line
		}
	}
	t.Fatalf("no token in body %q", body)
	return ""
}

func registerBuyer(t *testing.T, f accountsFixture) string {
	t.Helper()
	_, err := f.register.Register(context.Background(), RegisterRequest{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "Ann@Example.com",
		Password:  "correct-horse",
		Company:   "Acme",
		Position:  "Buyer",
	})
	require.NoError(t, err)
	return mailedToken(t, f.lastEmail(t).Body)
}

func TestRegisterCreatesInactiveUserAndMailsToken(t *testing.T) {
	f := newAccountsFixture(t)

	user, err := f.register.Register(context.Background(), RegisterRequest{
		FirstName: " Ann ",
		LastName:  "Lee",
		Email:     "Ann@Example.com",
		Password:  "correct-horse",
		Type:      "shop",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.FirstName)
	assert.Equal(t, enums.UserTypeShop, user.Type)
	assert.False(t, user.IsActive)

	email := f.lastEmail(t)
	assert.Equal(t, []string{"ann@example.com"}, email.To)
	assert.Equal(t, payloads.TemplateConfirmEmail, email.Template)

	var token models.UserToken
	require.NoError(t, f.conn.First(&token).Error)
	assert.Equal(t, enums.TokenKindEmailConfirm, token.Kind)
	assert.Equal(t, security.HashOneTimeToken(mailedToken(t, email.Body)), token.TokenHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAccountsFixture(t)
	registerBuyer(t, f)

	_, err := f.register.Register(context.Background(), RegisterRequest{
		FirstName: "Other", LastName: "Person", Email: "ann@example.com", Password: "another-pass",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
	assert.Equal(t, int64(1), f.countEmails(t), "failed registration must not queue mail")
}

func TestRegisterRejectsUnknownType(t *testing.T) {
	f := newAccountsFixture(t)
	_, err := f.register.Register(context.Background(), RegisterRequest{
		FirstName: "A", LastName: "B", Email: "a@example.com", Password: "password1", Type: "admin",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConfirmActivatesAccount(t *testing.T) {
	f := newAccountsFixture(t)
	token := registerBuyer(t, f)

	err := f.register.Confirm(context.Background(), ConfirmEmailRequest{Email: "ann@example.com", Token: "wrong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	err = f.register.Confirm(context.Background(), ConfirmEmailRequest{Email: "ghost@example.com", Token: token})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.register.Confirm(context.Background(), ConfirmEmailRequest{Email: "ANN@example.com", Token: token}))

	user, err := users.NewRepository(f.conn).FindByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	err = f.register.Confirm(context.Background(), ConfirmEmailRequest{Email: "ann@example.com", Token: token})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "tokens are single use")
}

func TestConfirmRejectsExpiredToken(t *testing.T) {
	f := newAccountsFixture(t)
	token := registerBuyer(t, f)

	svc := f.register.(*registerService)
	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	err := f.register.Confirm(context.Background(), ConfirmEmailRequest{Email: "ann@example.com", Token: token})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
