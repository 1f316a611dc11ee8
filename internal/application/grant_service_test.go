package application

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func TestGrantService_CodeExchangeSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)
	assert.Len(t, code, 16)
	assert.Regexp(t, alphanumeric, code)

	bundle, err := f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
	require.NoError(t, err)
	require.NotNil(t, bundle.AccessToken)
	assert.Len(t, bundle.AccessToken.Token, TokenLength)
	assert.Regexp(t, alphanumeric, bundle.AccessToken.Token)
	assert.Equal(t, domain.TokenTypeAccess, bundle.AccessToken.Type)
	require.NotNil(t, bundle.AccessToken.EntityID)
	assert.Equal(t, f.entity.ID, *bundle.AccessToken.EntityID)
	assert.Equal(t, f.client.ID, bundle.AccessToken.ClientID)
	require.NotNil(t, bundle.RefreshToken)
	assert.Equal(t, domain.TokenTypeRefresh, bundle.RefreshToken.Type)
	assert.NotEqual(t, bundle.AccessToken.Token, bundle.RefreshToken.Token)

	again, err := f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)
	assert.Nil(t, again)

	issued, err := f.tokens.ListByClient(ctx, f.client.ID)
	require.NoError(t, err)
	assert.Len(t, issued, 2)
}

func TestGrantService_ExchangePreconditionsKeepCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addClient(t, "c2", "")

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)

	_, err = f.grants.ExchangeCode(ctx, f.client, code, "http://localhost/other")
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)

	_, err = f.grants.ExchangeCode(ctx, other, code, testRedirectURI)
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)

	// the legitimate client can still redeem it
	bundle, err := f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
	require.NoError(t, err)
	assert.NotNil(t, bundle.AccessToken)
}

func TestGrantService_ClientsSharingPublicIDAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)

	impostor := *f.client
	impostor.ID = ulid.Make()

	_, err = f.grants.ExchangeCode(ctx, &impostor, code, testRedirectURI)
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)
}

func TestGrantService_ConcurrentExchangeMintsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			bundle, err := f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidGrant)
				return
			}
			assert.NotNil(t, bundle)
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	issued, err := f.tokens.ListByClient(ctx, f.client.ID)
	require.NoError(t, err)
	assert.Len(t, issued, 2)
}

func TestGrantService_CodeExpires(t *testing.T) {
	f := newFixture(t, withCodeTTL(20*time.Millisecond))
	ctx := context.Background()

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)
}

func TestGrantService_GrantCodeRejectsForeignRedirect(t *testing.T) {
	f := newFixture(t)

	_, err := f.grants.GrantCode(context.Background(), f.client, "http://evil.example/cb", f.entity, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGrantService_RefreshTokensCanBeDisabled(t *testing.T) {
	f := newFixture(t, withGrantConfig(GrantConfig{CodeLength: 32}))
	ctx := context.Background()

	code, err := f.grants.GrantCode(ctx, f.client, testRedirectURI, f.entity, "")
	require.NoError(t, err)
	assert.Len(t, code, 32)

	bundle, err := f.grants.ExchangeCode(ctx, f.client, code, testRedirectURI)
	require.NoError(t, err)
	assert.Nil(t, bundle.RefreshToken)
}

func TestGrantService_TokenExpiry(t *testing.T) {
	f := newFixture(t, withGrantConfig(GrantConfig{AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour, IssueRefreshTokens: true}))

	bundle, err := f.grants.ExchangePassword(context.Background(), f.client, "e1", testEntityHash, "")
	require.NoError(t, err)

	require.NotNil(t, bundle.AccessToken.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *bundle.AccessToken.ExpiresAt, time.Minute)
	require.NotNil(t, bundle.RefreshToken.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *bundle.RefreshToken.ExpiresAt, time.Minute)
}

func TestGrantService_ExchangePassword(t *testing.T) {
	tests := []struct {
		name         string
		username     string
		passwordHash string
		wantErr      error
	}{
		{name: "success", username: "e1", passwordHash: testEntityHash},
		{name: "wrong hash", username: "e1", passwordHash: "nope", wantErr: domain.ErrInvalidGrant},
		{name: "unknown entity", username: "ghost", passwordHash: testEntityHash, wantErr: domain.ErrInvalidGrant},
		{name: "missing username", username: "", passwordHash: testEntityHash, wantErr: domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			bundle, err := f.grants.ExchangePassword(context.Background(), f.client, tt.username, tt.passwordHash, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, bundle)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, bundle.AccessToken.EntityID)
			assert.Equal(t, f.entity.ID, *bundle.AccessToken.EntityID)
			assert.Equal(t, f.client.ID, bundle.AccessToken.ClientID)
		})
	}
}

func TestGrantService_ClientCredentialsNeverBindsEntity(t *testing.T) {
	f := newFixture(t)

	bundle, err := f.grants.ExchangeClientCredentials(context.Background(), f.client, "")
	require.NoError(t, err)
	assert.Nil(t, bundle.AccessToken.EntityID)
	assert.Nil(t, bundle.RefreshToken)
	assert.Equal(t, f.client.ID, bundle.AccessToken.ClientID)
}

func TestGrantService_ImplicitGrant(t *testing.T) {
	f := newFixture(t)

	bundle, err := f.grants.ImplicitGrant(context.Background(), f.client, f.entity, "")
	require.NoError(t, err)
	assert.Nil(t, bundle.RefreshToken)
	require.NotNil(t, bundle.AccessToken.EntityID)
	assert.Equal(t, f.entity.ID, *bundle.AccessToken.EntityID)
}

func TestGrantService_GrantTypePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	codeOnly := f.addClient(t, "code-only", "", domain.GrantTypeAuthorizationCode)

	_, err := f.grants.ExchangePassword(ctx, codeOnly, "e1", testEntityHash, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedClient)

	_, err = f.grants.ExchangeClientCredentials(ctx, codeOnly, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedClient)

	_, err = f.grants.ImplicitGrant(ctx, codeOnly, f.entity, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedClient)

	_, err = f.grants.ExchangeRefreshToken(ctx, codeOnly, "whatever", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedClient)
}

func TestGrantService_ScopePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scoped := f.addClient(t, "scoped", "read write")

	bundle, err := f.grants.ExchangeClientCredentials(ctx, scoped, "")
	require.NoError(t, err)
	assert.Equal(t, "read write", bundle.AccessToken.Scope)

	bundle, err = f.grants.ExchangeClientCredentials(ctx, scoped, "read")
	require.NoError(t, err)
	assert.Equal(t, "read", bundle.AccessToken.Scope)

	_, err = f.grants.ExchangeClientCredentials(ctx, scoped, "read admin")
	assert.ErrorIs(t, err, domain.ErrInvalidScope)

	// clients without a registered scope accept whatever is asked
	bundle, err = f.grants.ExchangeClientCredentials(ctx, f.client, "anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", bundle.AccessToken.Scope)
}

func TestGrantService_ExchangeRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addClient(t, "c2", "")
	scoped := f.addClient(t, "scoped", "read write")

	bundle, err := f.grants.ExchangePassword(ctx, scoped, "e1", testEntityHash, "")
	require.NoError(t, err)
	refresh := bundle.RefreshToken.Token

	t.Run("mints a new access token", func(t *testing.T) {
		fresh, err := f.grants.ExchangeRefreshToken(ctx, scoped, refresh, "")
		require.NoError(t, err)
		assert.NotEqual(t, bundle.AccessToken.Token, fresh.AccessToken.Token)
		assert.Nil(t, fresh.RefreshToken)
		assert.Equal(t, *bundle.AccessToken.EntityID, *fresh.AccessToken.EntityID)
		assert.Equal(t, "read write", fresh.AccessToken.Scope)
	})

	t.Run("narrows scope", func(t *testing.T) {
		fresh, err := f.grants.ExchangeRefreshToken(ctx, scoped, refresh, "read")
		require.NoError(t, err)
		assert.Equal(t, "read", fresh.AccessToken.Scope)
	})

	t.Run("rejects broader scope", func(t *testing.T) {
		_, err := f.grants.ExchangeRefreshToken(ctx, scoped, refresh, "read admin")
		assert.ErrorIs(t, err, domain.ErrInvalidScope)
	})

	t.Run("rejects another client", func(t *testing.T) {
		_, err := f.grants.ExchangeRefreshToken(ctx, other, refresh, "")
		assert.ErrorIs(t, err, domain.ErrInvalidGrant)
	})

	t.Run("rejects access tokens", func(t *testing.T) {
		_, err := f.grants.ExchangeRefreshToken(ctx, scoped, bundle.AccessToken.Token, "")
		assert.ErrorIs(t, err, domain.ErrInvalidGrant)
	})

	t.Run("rejects unknown tokens", func(t *testing.T) {
		_, err := f.grants.ExchangeRefreshToken(ctx, scoped, "unknown", "")
		assert.ErrorIs(t, err, domain.ErrInvalidGrant)
	})
}

func TestGrantService_ExpiredRefreshToken(t *testing.T) {
	f := newFixture(t, withGrantConfig(GrantConfig{RefreshTokenTTL: time.Hour, IssueRefreshTokens: true}))
	ctx := context.Background()

	bundle, err := f.grants.ExchangePassword(ctx, f.client, "e1", testEntityHash, "")
	require.NoError(t, err)

	f.grants.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = f.grants.ExchangeRefreshToken(ctx, f.client, bundle.RefreshToken.Token, "")
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)
}

func TestGrantService_PersistenceFailureIssuesNothing(t *testing.T) {
	client := &domain.Client{ID: ulid.Make(), ClientID: "c1", RedirectURI: testRedirectURI}
	authCode := &domain.AuthorizationCode{
		Code:        "abcdefghijklmnop",
		ClientID:    client.ID,
		EntityID:    ulid.Make(),
		RedirectURI: testRedirectURI,
	}

	codes := new(MockCodeStore)
	codes.On("Get", mock.Anything, authCode.Code).Return(authCode, nil)
	codes.On("Take", mock.Anything, authCode.Code).Return(authCode, nil)

	tokens := new(MockTokenRepository)
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(records []*domain.AccessToken) bool {
		return len(records) == 2
	})).Return(domain.ErrDatabaseQuery)

	service := NewGrantService(codes, tokens, nil, GrantConfig{IssueRefreshTokens: true}, zap.NewNop())

	bundle, err := service.ExchangeCode(context.Background(), client, authCode.Code, testRedirectURI)
	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, domain.ErrDatabaseQuery)

	var oauthErr *domain.OAuthError
	assert.False(t, errors.As(err, &oauthErr))
	codes.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestGrantService_CodeStoreFailure(t *testing.T) {
	client := &domain.Client{ID: ulid.Make(), ClientID: "c1", RedirectURI: testRedirectURI}
	storeErr := errors.New("connection refused")

	codes := new(MockCodeStore)
	codes.On("Get", mock.Anything, "code").Return(nil, storeErr)

	service := NewGrantService(codes, new(MockTokenRepository), nil, GrantConfig{}, zap.NewNop())

	_, err := service.ExchangeCode(context.Background(), client, "code", testRedirectURI)
	assert.ErrorIs(t, err, storeErr)
	codes.AssertNotCalled(t, "Take", mock.Anything, mock.Anything)
}

func TestGrantService_LostTakeRace(t *testing.T) {
	client := &domain.Client{ID: ulid.Make(), ClientID: "c1", RedirectURI: testRedirectURI}
	authCode := &domain.AuthorizationCode{Code: "code", ClientID: client.ID, RedirectURI: testRedirectURI}

	codes := new(MockCodeStore)
	codes.On("Get", mock.Anything, "code").Return(authCode, nil)
	codes.On("Take", mock.Anything, "code").Return(nil, domain.ErrNotFound)

	tokens := new(MockTokenRepository)
	service := NewGrantService(codes, tokens, nil, GrantConfig{}, zap.NewNop())

	_, err := service.ExchangeCode(context.Background(), client, "code", testRedirectURI)
	assert.ErrorIs(t, err, domain.ErrInvalidGrant)
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGrantService_TokensArePairwiseDistinct(t *testing.T) {
	f := newFixture(t, withGrantConfig(GrantConfig{}))
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		bundle, err := f.grants.ExchangeClientCredentials(ctx, f.client, "")
		require.NoError(t, err)
		token := bundle.AccessToken.Token
		require.Len(t, token, TokenLength)
		require.Regexp(t, alphanumeric, token)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestResolveScope(t *testing.T) {
	client := &domain.Client{Scope: "read write"}

	scope, err := ResolveScope(client, "")
	require.NoError(t, err)
	assert.Equal(t, "read write", scope)

	scope, err = ResolveScope(client, "write,read")
	require.NoError(t, err)
	assert.Equal(t, "write read", scope)

	_, err = ResolveScope(client, "delete")
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}
