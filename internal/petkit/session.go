package petkit

import (
	"context"
	"crypto/md5" //nolint:gosec // vendor protocol requires MD5 password hashing
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/config"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
)

// md5HexLength is the length of an MD5 digest in hex. Passwords of this
// length are assumed pre-hashed and passed through unchanged.
const md5HexLength = 32

// dualHopperDefaultAmount is the fallback portion for dual-hopper
// feeders, which dispense per-hopper rather than a shared total.
const dualHopperDefaultAmount = 1

// NumberResolver resolves a named external numeric input, such as a
// feeding amount slider published over MQTT. ok is false when the input
// is unknown or has no value yet.
type NumberResolver func(name string) (value float64, ok bool)

// Account manages one PetKit cloud account: credentials, the session
// token lifecycle, and the device roster fetch.
//
// All methods are safe for concurrent use.
type Account struct {
	cfg    config.AccountConfig
	client *Client
	store  SessionStore
	logger *logging.Logger

	mu    sync.RWMutex
	uid   string
	token string

	resolverMu sync.RWMutex
	numbers    NumberResolver
}

// NewAccount creates an account around an existing client and session
// store. Configured uid/token values seed the session so a bridge
// restart can resume without logging in.
func NewAccount(cfg config.AccountConfig, client *Client, store SessionStore, logger *logging.Logger) *Account {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Account{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With("username", cfg.Username),
		uid:    cfg.UID,
		token:  cfg.Token,
	}
	if a.token != "" {
		client.SetToken(a.token)
	}
	return a
}

// NormalizePassword returns the MD5 hex digest the vendor expects.
// A value already 32 characters long is treated as pre-hashed.
func NormalizePassword(password string) string {
	if len(password) == md5HexLength {
		return password
	}
	sum := md5.Sum([]byte(password)) //nolint:gosec // vendor protocol
	return hex.EncodeToString(sum[:])
}

// Username returns the account's login name.
func (a *Account) Username() string {
	return a.cfg.Username
}

// UID returns the vendor user ID, falling back to the username before
// the first login has resolved it.
func (a *Account) UID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.uid != "" {
		return a.uid
	}
	return a.cfg.Username
}

// Token returns the current session token (empty before login).
func (a *Account) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Interval returns the configured polling period.
func (a *Account) Interval() time.Duration {
	return a.cfg.Interval()
}

// SetNumberResolver wires the external numeric input source used by
// FeedingAmount. May be called at any time; nil disables resolution.
func (a *Account) SetNumberResolver(fn NumberResolver) {
	a.resolverMu.Lock()
	a.numbers = fn
	a.resolverMu.Unlock()
}

// FeedingAmount resolves the configured portion for a manual feed.
//
// index selects the hopper: "" for the shared amount, "1" or "2" for
// dual-hopper feeders. References to external inputs are resolved via
// the registered NumberResolver; anything unresolvable falls back to
// the defaults (10g, or 1 per hopper for dual-hopper models).
func (a *Account) FeedingAmount(index, deviceType string) int {
	var ref config.AmountRef
	switch index {
	case "1":
		ref = a.cfg.FeedingAmount1
	case "2":
		ref = a.cfg.FeedingAmount2
	default:
		ref = a.cfg.FeedingAmount
	}

	if ref.Ref != "" {
		a.resolverMu.RLock()
		resolve := a.numbers
		a.resolverMu.RUnlock()
		if resolve != nil {
			if v, ok := resolve(ref.Ref); ok {
				return int(v)
			}
		}
	} else if !ref.IsZero() {
		return ref.Literal
	}

	if deviceType == "d4s" {
		return dualHopperDefaultAmount
	}
	return config.DefaultFeedingAmount
}

// Request performs a vendor API call with the account's session token.
func (a *Account) Request(ctx context.Context, api string, params map[string]string, method Method) map[string]any {
	return a.client.Request(ctx, api, params, method)
}

// Login authenticates against the vendor and adopts the returned
// session. The new session is persisted via CheckAuth.
func (a *Account) Login(ctx context.Context) error {
	params := map[string]string{
		"encrypt":    "1",
		"username":   a.cfg.Username,
		"password":   NormalizePassword(a.cfg.Password),
		"oldVersion": "",
	}
	rsp := a.client.Request(ctx, "user/login", params, MethodPostGet)

	session, _ := Result(rsp)["session"].(map[string]any)
	sid, _ := session["id"].(string)
	if sid == "" {
		if apiErr := EnvelopeError(rsp); apiErr != nil {
			a.logger.Error("petkit login rejected", "code", apiErr.Code, "msg", apiErr.Msg)
			return fmt.Errorf("%w: %w", ErrLoginFailed, apiErr)
		}
		a.logger.Error("petkit login returned no session")
		return ErrLoginFailed
	}

	uid := ""
	switch v := session["userId"].(type) {
	case string:
		uid = v
	case float64:
		uid = fmt.Sprintf("%.0f", v)
	}

	a.mu.Lock()
	a.token = sid
	if uid != "" {
		a.uid = uid
	}
	a.mu.Unlock()
	a.client.SetToken(sid)

	return a.CheckAuth(ctx, true)
}

// CheckAuth reconciles the in-memory session with the persisted one.
//
// With save=true the current session is written to the store; the
// store keeps the previous updated_at when the token is unchanged, so
// the timestamp tracks token age rather than write frequency. With
// save=false a persisted session is adopted if one exists, otherwise a
// fresh login is performed.
func (a *Account) CheckAuth(ctx context.Context, save bool) error {
	if a.store == nil {
		if !save && a.Token() == "" {
			return a.Login(ctx)
		}
		return nil
	}

	if save {
		a.mu.RLock()
		session := &StoredSession{
			Username:  a.cfg.Username,
			UID:       a.uid,
			Token:     a.token,
			UpdatedAt: time.Now().UTC(),
		}
		a.mu.RUnlock()
		if err := a.store.Save(ctx, session); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		return nil
	}

	stored, err := a.store.Load(ctx, a.cfg.Username)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return a.Login(ctx)
	case err != nil:
		return fmt.Errorf("loading session: %w", err)
	}

	if stored.Token == "" {
		return a.Login(ctx)
	}

	a.mu.Lock()
	a.token = stored.Token
	if stored.UID != "" {
		a.uid = stored.UID
	}
	a.mu.Unlock()
	a.client.SetToken(stored.Token)

	return nil
}

// Devices fetches the account's device roster.
//
// A stale session (vendor codes 5 and 8) triggers exactly one re-login
// followed by a retry; any other vendor error yields an empty roster.
// The returned slice contains raw roster entries, each with a "type"
// tag and a "data" payload.
func (a *Account) Devices(ctx context.Context) []map[string]any {
	const api = "discovery/device_roster"

	rsp := a.Request(ctx, api, nil, MethodGet)
	if apiErr := EnvelopeError(rsp); apiErr != nil && apiErr.AuthExpired() {
		if err := a.Login(ctx); err == nil {
			rsp = a.Request(ctx, api, nil, MethodGet)
		}
	}

	raw, _ := Result(rsp)["devices"].([]any)
	devices := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			devices = append(devices, m)
		}
	}
	if len(devices) == 0 {
		a.logger.Warn("petkit device roster empty", "response", rsp)
	}
	return devices
}
