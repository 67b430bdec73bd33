package vultrdns_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vultrdns"
)

// fakeRecords is an in-memory RecordService keyed by domain/name.
type fakeRecords struct {
	records map[string]*vultrdns.DNSRecord // key: domain + "/" + name
	creates int
	updates int
	err     error // returned by every call when set
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]*vultrdns.DNSRecord{}}
}

func (f *fakeRecords) set(domain string, record vultrdns.DNSRecord) {
	f.records[domain+"/"+record.Name] = &record
}

func (f *fakeRecords) GetRecordByName(ctx context.Context, domain, name, recordType string) (*vultrdns.DNSRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[domain+"/"+name], nil
}

func (f *fakeRecords) CreateRecord(ctx context.Context, domain string, params vultrdns.CreateRecordParams) (*vultrdns.DNSRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.creates++
	record := vultrdns.DNSRecord{ID: "created", Type: params.Type, Name: params.Name, Data: params.Data, TTL: params.TTL}
	f.set(domain, record)
	return &record, nil
}

func (f *fakeRecords) UpdateRecord(ctx context.Context, domain, recordID string, params vultrdns.UpdateRecordParams) error {
	if f.err != nil {
		return f.err
	}
	f.updates++
	for _, record := range f.records {
		if record.ID != recordID {
			continue
		}
		if params.Data != nil {
			record.Data = *params.Data
		}
		if params.TTL != nil {
			record.TTL = *params.TTL
		}
		return nil
	}
	return errors.New("no such record: " + recordID)
}

func TestReconcileUpToDate(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "203.0.113.7", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake}

	results, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home", TTL: 60}}, "203.0.113.7")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, vultrdns.ActionUpToDate, results[0].Action)
	assert.Equal(t, "203.0.113.7", results[0].Previous)
	assert.Zero(t, fake.creates)
	assert.Zero(t, fake.updates)
}

func TestReconcileUpdatesOnDrift(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "198.51.100.1", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake}

	results, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home", TTL: 60}}, "203.0.113.7")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, vultrdns.ActionUpdated, results[0].Action)
	assert.Equal(t, "198.51.100.1", results[0].Previous)
	assert.Equal(t, "203.0.113.7", results[0].Current)
	assert.Equal(t, 1, fake.updates)
	assert.Equal(t, "203.0.113.7", fake.records["example.com/home"].Data)
}

func TestReconcileTTLChangeAloneTriggersUpdate(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "203.0.113.7", TTL: 300})
	r := &vultrdns.Reconciler{Records: fake}

	results, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home", TTL: 60}}, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, vultrdns.ActionUpdated, results[0].Action)
	assert.Equal(t, 60, fake.records["example.com/home"].TTL)
}

func TestReconcileCreatesMissingRecord(t *testing.T) {
	fake := newFakeRecords()
	r := &vultrdns.Reconciler{Records: fake}

	results, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home"}}, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, vultrdns.ActionCreated, results[0].Action)
	assert.Empty(t, results[0].Previous)
	assert.Equal(t, 1, fake.creates)

	created := fake.records["example.com/home"]
	require.NotNil(t, created)
	assert.Equal(t, "A", created.Type)
	assert.Equal(t, vultrdns.DefaultTTL, created.TTL, "zero target TTL falls back to the default")
}

func TestReconcileDryRunMakesNoChanges(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "198.51.100.1", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake, DryRun: true}

	targets := []vultrdns.UpdateTarget{
		{Domain: "example.com", Subdomain: "home", TTL: 60},
		{Domain: "example.com", Subdomain: "office", TTL: 60},
	}
	results, err := r.ReconcileAll(context.Background(), targets, "203.0.113.7")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, vultrdns.ActionWouldUpdate, results[0].Action)
	assert.Equal(t, vultrdns.ActionWouldCreate, results[1].Action)
	assert.Zero(t, fake.creates)
	assert.Zero(t, fake.updates)
	assert.Equal(t, "198.51.100.1", fake.records["example.com/home"].Data)
}

func TestReconcileForceRewritesMatchingRecord(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "203.0.113.7", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake, Force: true}

	results, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home", TTL: 60}}, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, vultrdns.ActionUpdated, results[0].Action)
	assert.Equal(t, 1, fake.updates)
}

func TestReconcileApexTarget(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "", Data: "198.51.100.1", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake}

	target := vultrdns.UpdateTarget{Domain: "example.com", TTL: 60}
	assert.Equal(t, "example.com", target.FQDN())

	results, err := r.ReconcileAll(context.Background(), []vultrdns.UpdateTarget{target}, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, vultrdns.ActionUpdated, results[0].Action)
}

func TestReconcileStopsOnFirstError(t *testing.T) {
	fake := newFakeRecords()
	fake.set("example.com", vultrdns.DNSRecord{ID: "r1", Type: "A", Name: "home", Data: "198.51.100.1", TTL: 60})
	r := &vultrdns.Reconciler{Records: fake}

	targets := []vultrdns.UpdateTarget{
		{Domain: "example.com", Subdomain: "home", TTL: 60},
		{Domain: "", Subdomain: "broken"},
		{Domain: "example.com", Subdomain: "never-reached"},
	}
	results, err := r.ReconcileAll(context.Background(), targets, "203.0.113.7")
	require.Error(t, err)
	assert.Len(t, results, 1, "results before the failure are preserved")
	assert.Equal(t, 1, fake.updates)
	assert.Zero(t, fake.creates, "targets after the failure are not attempted")
}

func TestReconcileProviderErrorAborts(t *testing.T) {
	fake := newFakeRecords()
	fake.err = &vultrdns.APIError{StatusCode: 401, Message: "unauthorized"}
	r := &vultrdns.Reconciler{Records: fake}

	_, err := r.ReconcileAll(context.Background(),
		[]vultrdns.UpdateTarget{{Domain: "example.com", Subdomain: "home"}}, "203.0.113.7")
	require.Error(t, err)

	var apiErr *vultrdns.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "home.example.com")
}
