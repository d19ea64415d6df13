package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	refreshable bool
	calls       int
	err         error
}

func (p *fakeProvider) Credentials(ctx context.Context) (Credential, error) {
	p.calls++
	return Credential{Token: "tok"}, p.err
}

func (p *fakeProvider) Invalidate() {}

func (p *fakeProvider) Refreshable() bool { return p.refreshable }

func TestRefresherWarmsTokenFamiliesOnly(t *testing.T) {
	bearer := &fakeProvider{refreshable: true}
	static := &fakeProvider{refreshable: false}

	refresher := &Refresher{Providers: map[string]Provider{
		"ironsource": bearer,
		"inmobi":     static,
	}}

	assert.NoError(t, refresher.Run())
	assert.Equal(t, 1, bearer.calls)
	assert.Equal(t, 0, static.calls, "static providers have nothing to warm")
}

func TestRefresherSwallowsFailures(t *testing.T) {
	failing := &fakeProvider{refreshable: true, err: errors.New("upstream down")}
	healthy := &fakeProvider{refreshable: true}

	refresher := &Refresher{Providers: map[string]Provider{
		"admob":      failing,
		"ironsource": healthy,
	}}

	assert.NoError(t, refresher.Run(), "a failed refresh never fails the task")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
}
