package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/campus-verify/campus_verify/internal/email"
	"github.com/campus-verify/campus_verify/internal/logging"
	"github.com/campus-verify/campus_verify/internal/member"
	"github.com/campus-verify/campus_verify/internal/role"
)

type fakeSender struct {
	mu   sync.Mutex
	fail bool
	sent []email.Message
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp relay unreachable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) last(t *testing.T) email.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no email was sent")
	}
	return f.sent[len(f.sent)-1]
}

type fakeGranter struct {
	mu     sync.Mutex
	err    error
	grants []string
}

func (f *fakeGranter) Grant(_ context.Context, identity, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.grants = append(f.grants, identity)
	return nil
}

type failingStore struct {
	member.Store
	failAppend bool
}

func (s *failingStore) Append(ctx context.Context, rec member.Record) error {
	if s.failAppend {
		return errors.New("disk full")
	}
	return s.Store.Append(ctx, rec)
}

type fixture struct {
	svc     *Service
	table   *PendingTable
	members member.Store
	sender  *fakeSender
	granter *fakeGranter
}

func newFixture() *fixture {
	f := &fixture{
		table:   NewPendingTable(),
		members: member.NewMemoryStore(),
		sender:  &fakeSender{},
		granter: &fakeGranter{},
	}
	f.svc = NewService("usc.edu", "USC student", f.table, f.members, f.sender, f.granter, logging.Discard())
	return f
}

func TestRequestInputValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		args   string
		reason string
	}{
		{"empty argument", "", ReasonNoEmail},
		{"whitespace only", "   ", ReasonNoEmail},
		{"two tokens", "a@usc.edu b@usc.edu", ReasonBadArgCount},
		{"wrong domain", "a@gmail.com", ReasonInvalidEmail},
		{"not an email", "hello", ReasonInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.svc.Request(ctx, "alice", nil, tc.args)
			if res.Outcome != OutcomeInvalidInput {
				t.Fatalf("got %v, want OutcomeInvalidInput", res.Outcome)
			}
			if res.Reason != tc.reason {
				t.Fatalf("got reason %q, want %q", res.Reason, tc.reason)
			}
		})
	}

	if f.table.Len() != 0 {
		t.Fatal("rejected requests must not create pending entries")
	}
}

func TestRequestAlreadyVerified(t *testing.T) {
	f := newFixture()

	res := f.svc.Request(context.Background(), "alice", []string{"USC student"}, "alice@usc.edu")
	if res.Outcome != OutcomeAlreadyVerified {
		t.Fatalf("got %v, want OutcomeAlreadyVerified", res.Outcome)
	}
	if f.table.Len() != 0 {
		t.Fatal("verified callers must not create pending entries")
	}
}

func TestRequestRejectsClaimedEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.members.Append(ctx, member.Record{Name: "bob", EmailHash: email.HashAddress("alice@usc.edu")}); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	res := f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	if res.Outcome != OutcomeEmailAlreadyUsed {
		t.Fatalf("got %v, want OutcomeEmailAlreadyUsed", res.Outcome)
	}
	if f.table.Len() != 0 {
		t.Fatal("claimed email must not create a pending entry")
	}
	if len(f.sender.sent) != 0 {
		t.Fatal("claimed email must not trigger delivery")
	}
}

func TestRequestUpsertSemantics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res := f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	if res.Outcome != OutcomeRequestCreated {
		t.Fatalf("first request: got %v, want OutcomeRequestCreated", res.Outcome)
	}
	first, _ := f.table.Get("alice")
	if len(first.Code) != 64 {
		t.Fatalf("expected 64-char code, got %q", first.Code)
	}

	// Same email again: only the code changes.
	res = f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	if res.Outcome != OutcomeCodeResent {
		t.Fatalf("re-request: got %v, want OutcomeCodeResent", res.Outcome)
	}
	second, _ := f.table.Get("alice")
	if second.Email != first.Email {
		t.Fatal("re-requesting with the same email must not change the stored email")
	}
	if second.Code == first.Code {
		t.Fatal("re-requesting must issue a fresh code")
	}

	// Different email: both fields replaced, still one entry.
	res = f.svc.Request(ctx, "alice", nil, "alice2@usc.edu")
	if res.Outcome != OutcomeEmailUpdated {
		t.Fatalf("new-email request: got %v, want OutcomeEmailUpdated", res.Outcome)
	}
	third, _ := f.table.Get("alice")
	if third.Email != "alice2@usc.edu" || third.Code == second.Code {
		t.Fatalf("expected replaced email and code, got %+v", third)
	}
	if f.table.Len() != 1 {
		t.Fatalf("expected a single pending entry, have %d", f.table.Len())
	}
}

func TestRequestDeliveryFailureKeepsEntry(t *testing.T) {
	f := newFixture()
	f.sender.fail = true

	res := f.svc.Request(context.Background(), "alice", nil, "alice@usc.edu")
	if res.Outcome != OutcomeDeliveryFailed {
		t.Fatalf("got %v, want OutcomeDeliveryFailed", res.Outcome)
	}
	if _, ok := f.table.Get("alice"); !ok {
		t.Fatal("delivery failure must leave the pending entry for retry")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if res := f.svc.Submit(ctx, "alice", nil, ""); res.Outcome != OutcomeNoCodeSupplied {
		t.Fatalf("empty code: got %v, want OutcomeNoCodeSupplied", res.Outcome)
	}

	if res := f.svc.Submit(ctx, "alice", []string{"USC student"}, "whatever"); res.Outcome != OutcomeAlreadyVerified {
		t.Fatalf("verified caller: got %v, want OutcomeAlreadyVerified", res.Outcome)
	}

	// No pending entry and a wrong code read identically.
	if res := f.svc.Submit(ctx, "alice", nil, "whatever"); res.Outcome != OutcomeCodeRejected {
		t.Fatalf("no entry: got %v, want OutcomeCodeRejected", res.Outcome)
	}
}

func TestEndToEndVerification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res := f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	if res.Outcome != OutcomeRequestCreated {
		t.Fatalf("request: got %v, want OutcomeRequestCreated", res.Outcome)
	}
	code := f.sender.last(t).Code
	if len(code) != 64 {
		t.Fatalf("expected a 64-hex-char code, got %q", code)
	}

	// Wrong code changes nothing.
	if res := f.svc.Submit(ctx, "alice", nil, "not-the-code"); res.Outcome != OutcomeCodeRejected {
		t.Fatalf("wrong code: got %v, want OutcomeCodeRejected", res.Outcome)
	}
	if _, ok := f.table.Get("alice"); !ok {
		t.Fatal("failed submit must leave the pending entry unchanged")
	}

	// Correct code converts the challenge into a member record.
	if res := f.svc.Submit(ctx, "alice", nil, code); res.Outcome != OutcomeVerified {
		t.Fatalf("correct code: got %v, want OutcomeVerified", res.Outcome)
	}
	if f.table.Len() != 0 {
		t.Fatal("successful submit must consume the pending entry")
	}

	exists, err := f.members.Exists(ctx, email.HashAddress("alice@usc.edu"))
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("member record must hold the hash of the verified address")
	}

	records, err := f.members.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 1 || records[0].Name != "alice" {
		t.Fatalf("expected exactly one member record for alice, got %+v", records)
	}

	if len(f.granter.grants) != 1 || f.granter.grants[0] != "alice" {
		t.Fatalf("expected one role grant for alice, got %v", f.granter.grants)
	}

	// The code is spent.
	if res := f.svc.Submit(ctx, "alice", nil, code); res.Outcome != OutcomeCodeRejected {
		t.Fatalf("replayed code: got %v, want OutcomeCodeRejected", res.Outcome)
	}
}

func TestSubmitCommitRaceRejectsSecondClaim(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Two identities pass the advisory pre-check with the same address.
	f.svc.Request(ctx, "alice", nil, "shared@usc.edu")
	f.svc.Request(ctx, "mallory", nil, "shared@usc.edu")

	aliceEntry, _ := f.table.Get("alice")
	malloryEntry, _ := f.table.Get("mallory")

	if res := f.svc.Submit(ctx, "alice", nil, aliceEntry.Code); res.Outcome != OutcomeVerified {
		t.Fatalf("first claim: got %v, want OutcomeVerified", res.Outcome)
	}

	// The locked append catches what the pre-check missed.
	if res := f.svc.Submit(ctx, "mallory", nil, malloryEntry.Code); res.Outcome != OutcomeEmailAlreadyUsed {
		t.Fatalf("second claim: got %v, want OutcomeEmailAlreadyUsed", res.Outcome)
	}

	records, _ := f.members.All(ctx)
	if len(records) != 1 {
		t.Fatalf("email hash must stay unique across members, got %+v", records)
	}
}

func TestSubmitStorageFailureRestoresEntry(t *testing.T) {
	f := newFixture()
	failing := &failingStore{Store: f.members, failAppend: true}
	f.svc = NewService("usc.edu", "USC student", f.table, failing, f.sender, f.granter, logging.Discard())
	ctx := context.Background()

	f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	entry, _ := f.table.Get("alice")

	if res := f.svc.Submit(ctx, "alice", nil, entry.Code); res.Outcome != OutcomeInternalError {
		t.Fatalf("got %v, want OutcomeInternalError", res.Outcome)
	}
	if _, ok := f.table.Get("alice"); !ok {
		t.Fatal("a failed persist must restore the pending entry")
	}

	// Once storage recovers the same code still works.
	failing.failAppend = false
	if res := f.svc.Submit(ctx, "alice", nil, entry.Code); res.Outcome != OutcomeVerified {
		t.Fatalf("retry: got %v, want OutcomeVerified", res.Outcome)
	}
}

func TestSubmitRoleMisconfiguration(t *testing.T) {
	f := newFixture()
	f.granter.err = role.ErrRoleNotFound
	ctx := context.Background()

	f.svc.Request(ctx, "alice", nil, "alice@usc.edu")
	entry, _ := f.table.Get("alice")

	if res := f.svc.Submit(ctx, "alice", nil, entry.Code); res.Outcome != OutcomeRoleMisconfigured {
		t.Fatalf("got %v, want OutcomeRoleMisconfigured", res.Outcome)
	}
}

func TestConcurrentRequestsSerialize(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			f.svc.Request(ctx, "alice", nil, fmt.Sprintf("alice%02d@usc.edu", i))
		}(i)
	}
	wg.Wait()

	if f.table.Len() != 1 {
		t.Fatalf("expected exactly one pending entry, have %d", f.table.Len())
	}

	// The surviving entry must be exactly one of the submitted candidates,
	// never a blend of two.
	entry, _ := f.table.Get("alice")
	found := false
	f.sender.mu.Lock()
	for _, msg := range f.sender.sent {
		if msg.To == entry.Email && msg.Code == entry.Code {
			found = true
			break
		}
	}
	f.sender.mu.Unlock()
	if !found {
		t.Fatalf("final entry %+v does not match any delivered candidate", entry)
	}
}
