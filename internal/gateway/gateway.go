package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/llm"
	"codeberg.org/studyai/server/internal/logger"
	"codeberg.org/studyai/server/internal/study"
)

// admits, dispatches and charges study requests
type Gateway struct {
	store    accounts.Store
	upstream llm.Completer
	catalog  *study.Catalog
	policy   accounts.Policy
	settings Settings
}

func New(store accounts.Store, upstream llm.Completer, catalog *study.Catalog, policy accounts.Policy, settings Settings) *Gateway {
	return &Gateway{
		store:    store,
		upstream: upstream,
		catalog:  catalog,
		policy:   policy,
		settings: settings,
	}
}

func (g *Gateway) Policy() accounts.Policy {
	return g.policy
}

// runs one request cycle for an authenticated user
// on success the caller must relay and close Result.Stream when set
func (g *Gateway) Handle(ctx context.Context, userID string, req Request) (*Result, error) {
	account, err := g.Admit(ctx, userID)
	if err != nil {
		return nil, err
	}

	mode, err := Validate(req)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("processing study request",
		"mode", mode,
		"tier", study.TierFor(account.IsPremium),
		"message", logger.Truncate(req.Message, 50),
	)

	if mode.Shape() == study.ShapeStructured {
		quiz, account, err := g.Quiz(ctx, account, req.Message)
		if err != nil {
			return nil, err
		}

		return &Result{Mode: mode, Account: account, Quiz: quiz}, nil
	}

	stream, account, err := g.Stream(ctx, account, mode, req.Message)
	if err != nil {
		return nil, err
	}

	return &Result{Mode: mode, Account: account, Stream: stream}, nil
}

// loads the caller's account, creating it on first use, and rejects
// free accounts whose allowance is spent before any upstream call
func (g *Gateway) Admit(ctx context.Context, userID string) (*accounts.Account, error) {
	account, err := g.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if g.policy.Exhausted(account) {
		return nil, quotaError(g.policy.DailyLimit, nil)
	}

	return account, nil
}

// account state for the usage counter; creates the record like Admit does
func (g *Gateway) Snapshot(ctx context.Context, userID string) (*accounts.Snapshot, error) {
	account, err := g.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return g.policy.Snapshot(account), nil
}

// checks the body and resolves the mode
func Validate(req Request) (study.Mode, error) {
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.Mode) == "" {
		return "", &Error{Kind: KindBadRequest, Msg: msgMissingFields}
	}

	mode, err := study.ParseMode(req.Mode)
	if err != nil {
		return "", &Error{Kind: KindBadRequest, Msg: fmt.Sprintf("Unsupported study mode %q", req.Mode), Err: err}
	}

	return mode, nil
}

// requests a structured quiz and charges only once it parses
func (g *Gateway) Quiz(ctx context.Context, account *accounts.Account, message string) (*study.Quiz, *accounts.Account, error) {
	req := g.chatRequest(account, study.ModeQuiz, message)
	req.Tool = &llm.Tool{
		Name:        study.QuizToolName,
		Description: study.QuizToolDescription,
		Parameters:  study.QuizSchema(),
	}

	args, err := g.upstream.CallTool(ctx, req)
	if err != nil {
		return nil, nil, upstreamError(err)
	}

	quiz, err := study.ParseQuiz(args)
	if err != nil {
		return nil, nil, &Error{Kind: KindUpstream, Msg: msgUpstream, Err: err}
	}

	charged, err := g.charge(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	return quiz, charged, nil
}

// opens an upstream stream and charges as soon as it is accepted
// the returned body is the caller's to relay and close
func (g *Gateway) Stream(ctx context.Context, account *accounts.Account, mode study.Mode, message string) (io.ReadCloser, *accounts.Account, error) {
	body, err := g.upstream.StreamChat(ctx, g.chatRequest(account, mode, message))
	if err != nil {
		return nil, nil, upstreamError(err)
	}

	charged, err := g.charge(ctx, account)
	if err != nil {
		body.Close() //nolint:errcheck,gosec // nothing will be relayed
		return nil, nil, err
	}

	return body, charged, nil
}

func (g *Gateway) chatRequest(account *accounts.Account, mode study.Mode, message string) llm.ChatRequest {
	tier := study.TierFor(account.IsPremium)

	req := llm.ChatRequest{
		Model:        g.settings.FreeModel,
		MaxTokens:    g.settings.FreeMaxTokens,
		SystemPrompt: g.catalog.SystemPrompt(mode, tier),
		UserPrompt:   message,
	}

	if tier == study.TierPremium {
		req.Model = g.settings.PremiumModel
		req.MaxTokens = g.settings.PremiumMaxTokens
	}

	return req
}

func (g *Gateway) loadOrCreate(ctx context.Context, userID string) (*accounts.Account, error) {
	account, err := g.store.Get(ctx, userID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, accounts.ErrNotFound) {
		return nil, &Error{Kind: KindInternal, Msg: msgAccountLookup, Err: err}
	}

	if err := g.store.Create(ctx, g.policy.NewAccount(userID)); err != nil {
		return nil, &Error{Kind: KindInternal, Msg: msgAccountSetup, Err: err}
	}

	logger.FromContext(ctx).Info("created study account", "user_id", userID)

	account, err = g.store.Get(ctx, userID)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Msg: msgAccountSetup, Err: err}
	}

	return account, nil
}

// records one use for free accounts; premium accounts are never charged
func (g *Gateway) charge(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	if account.IsPremium {
		return account, nil
	}

	charged, err := g.store.Charge(ctx, account.UserID, g.policy.Today(), g.policy.DailyLimit)

	switch {
	case err == nil:
		return charged, nil
	case errors.Is(err, accounts.ErrQuotaExhausted):
		// a concurrent request took the last slot after admission
		return nil, quotaError(g.policy.DailyLimit, err)
	default:
		return nil, &Error{Kind: KindInternal, Msg: "Failed to record usage", Err: err}
	}
}

func quotaError(limit int, err error) *Error {
	return &Error{
		Kind: KindQuotaExceeded,
		Msg:  fmt.Sprintf("You've used all %d free requests for today. Upgrade to premium for unlimited access.", limit),
		Err:  err,
	}
}

func upstreamError(err error) *Error {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return &Error{Kind: KindRateLimited, Msg: msgRateLimited, Err: err}
	case errors.Is(err, llm.ErrPaymentRequired):
		return &Error{Kind: KindPaymentRequired, Msg: msgPaymentRequired, Err: err}
	default:
		return &Error{Kind: KindUpstream, Msg: msgUpstream, Err: err}
	}
}
