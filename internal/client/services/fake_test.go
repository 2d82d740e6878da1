package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// fakeClient implements client.Client for unit tests. Unset functions
// answer with ErrUnknown.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	obtainToken func(username, password []byte) (models.Credential, error)
	refresh     func(cred models.Credential) (models.Credential, error)
	dashboard   func(cred models.Credential) (models.Profile, error)
	logout      func(cred models.Credential) error
	update      func(coll models.Collection, id int64, payload any) (json.RawMessage, error)
	create      func(coll models.Collection, payload any) (json.RawMessage, error)
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) ObtainToken(_ context.Context, username, password []byte) (models.Credential, error) {
	f.record("ObtainToken")
	if f.obtainToken == nil {
		return models.Credential{}, client.ErrUnknown
	}
	return f.obtainToken(username, password)
}

func (f *fakeClient) RefreshToken(_ context.Context, cred models.Credential) (models.Credential, error) {
	f.record("RefreshToken")
	if f.refresh == nil {
		return models.Credential{}, client.ErrUnknown
	}
	return f.refresh(cred)
}

func (f *fakeClient) Logout(_ context.Context, cred models.Credential) error {
	f.record("Logout")
	if f.logout == nil {
		return client.ErrUnknown
	}
	return f.logout(cred)
}

func (f *fakeClient) Dashboard(_ context.Context, cred models.Credential) (models.Profile, error) {
	f.record("Dashboard")
	if f.dashboard == nil {
		return models.Profile{}, client.ErrUnknown
	}
	return f.dashboard(cred)
}

func (f *fakeClient) Sessions(context.Context, models.Credential) ([]models.AuthSession, error) {
	f.record("Sessions")
	return nil, client.ErrUnknown
}

func (f *fakeClient) RevokeSession(context.Context, models.Credential, int64) error {
	f.record("RevokeSession")
	return client.ErrUnknown
}

func (f *fakeClient) List(context.Context, models.Credential, models.Collection) ([]json.RawMessage, error) {
	f.record("List")
	return nil, client.ErrUnknown
}

func (f *fakeClient) Create(_ context.Context, _ models.Credential, coll models.Collection, payload any) (json.RawMessage, error) {
	f.record("Create")
	if f.create == nil {
		return nil, client.ErrUnknown
	}
	return f.create(coll, payload)
}

func (f *fakeClient) Update(_ context.Context, _ models.Credential, coll models.Collection, id int64, payload any) (json.RawMessage, error) {
	f.record("Update")
	if f.update == nil {
		return nil, client.ErrUnknown
	}
	return f.update(coll, id, payload)
}

func (f *fakeClient) Delete(context.Context, models.Credential, models.Collection, int64) error {
	f.record("Delete")
	return client.ErrUnknown
}

func (f *fakeClient) Close() error { return nil }

// fakeReloader counts loads and returns err.
type fakeReloader struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (r *fakeReloader) Load(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	return r.err
}

func (r *fakeReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
