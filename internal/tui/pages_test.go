package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/aide/internal/guard"
	"github.com/naveenspark/aide/internal/oauthcallback"
	"github.com/naveenspark/aide/internal/querycache"
	"github.com/naveenspark/aide/pkg/client"
	"github.com/naveenspark/aide/pkg/domain"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func testEnv(s Session) (pageEnv, *recordingNotifier) {
	n := &recordingNotifier{}
	return pageEnv{
		ctx:     context.Background(),
		mount:   "m1",
		api:     client.New("http://127.0.0.1:0"),
		session: s,
		cache:   querycache.New(time.Minute),
		notify:  n,
		user:    testUser,
	}, n
}

func TestFetchCachesSuccess(t *testing.T) {
	env, _ := testEnv(signedInSession())
	msg := env.fetch("payments/balance", func(context.Context) (any, error) {
		return &domain.CreditBalance{RemainingCredits: 5}, nil
	})().(fetchedMsg)

	if msg.mount != "m1" || msg.err != nil {
		t.Fatalf("unexpected fetch result %+v", msg)
	}
	if _, ok := env.cache.Get("payments/balance"); !ok {
		t.Error("successful fetch should be cached")
	}

	env.fetch("payments/history", func(context.Context) (any, error) { return nil, errors.New("down") })()
	if _, ok := env.cache.Get("payments/history"); ok {
		t.Error("failed fetch must not be cached")
	}
}

func TestFetchAfterTeardownIsNotCached(t *testing.T) {
	tests := []struct {
		name     string
		teardown func(cancel context.CancelFunc, c *querycache.Cache)
	}{
		{"unmounted and cleared", func(cancel context.CancelFunc, c *querycache.Cache) { cancel(); c.Clear() }},
		{"cleared while mounted", func(_ context.CancelFunc, c *querycache.Cache) { c.Clear() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, _ := testEnv(signedInSession())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			env.ctx = ctx

			started, release := make(chan struct{}), make(chan struct{})
			cmd := env.fetch("emails/list?unread=false", func(context.Context) (any, error) {
				close(started)
				<-release
				return &domain.EmailList{Emails: []domain.Email{{ID: "e1", Subject: "previous user's inbox"}}}, nil
			})
			done := make(chan tea.Msg)
			go func() { done <- cmd() }()

			<-started
			tc.teardown(cancel, env.cache)
			close(release)
			<-done

			if v, ok := env.cache.Get("emails/list?unread=false"); ok {
				t.Errorf("result from before teardown was cached: %+v", v)
			}
		})
	}
}

func TestFetchFailureNotifies(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantToast string
	}{
		{"network", errors.New("dial tcp: connection refused"), "Could not reach the server."},
		{"server message", &client.HTTPError{StatusCode: http.StatusBadRequest, Message: "Unknown window"}, "Unknown window"},
		{"unauthorized handled by session", &client.HTTPError{StatusCode: http.StatusUnauthorized}, ""},
		{"cancelled by unmount", context.Canceled, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, n := testEnv(signedInSession())
			msg := env.fetch("analytics/dashboard/7", func(context.Context) (any, error) { return nil, tc.err })().(fetchedMsg)
			if msg.err == nil {
				t.Fatal("expected the error in the result")
			}
			switch {
			case tc.wantToast == "" && len(n.errors) != 0:
				t.Errorf("unexpected toast %v", n.errors)
			case tc.wantToast != "" && (len(n.errors) != 1 || n.errors[0] != tc.wantToast):
				t.Errorf("errors=%v, want [%s]", n.errors, tc.wantToast)
			}
		})
	}
}

func TestMutateInvalidatesAndNotifies(t *testing.T) {
	env, n := testEnv(signedInSession())
	env.cache.Set("emails/list?unread=false", "x")
	env.cache.Set("payments/balance", "y")

	msg := env.mutate("emails/status", "emails/", "Marked read", func(context.Context) (string, error) {
		return "", nil
	})().(mutatedMsg)

	if msg.err != nil {
		t.Fatalf("unexpected error %v", msg.err)
	}
	if _, ok := env.cache.Get("emails/list?unread=false"); ok {
		t.Error("emails cache should be invalidated")
	}
	if _, ok := env.cache.Get("payments/balance"); !ok {
		t.Error("unrelated cache entries must survive")
	}
	if len(n.successes) != 1 || n.successes[0] != "Marked read" {
		t.Errorf("successes=%v", n.successes)
	}
}

func TestMutateErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantToast bool
	}{
		{"server message", &client.HTTPError{StatusCode: http.StatusBadRequest, Message: "Not enough credits"}, true},
		{"unauthorized handled by session", &client.HTTPError{StatusCode: http.StatusUnauthorized}, false},
		{"cancelled by unmount", context.Canceled, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, n := testEnv(signedInSession())
			msg := env.mutate("k", "", "ok", func(context.Context) (string, error) { return "", tc.err })().(mutatedMsg)
			if msg.err == nil {
				t.Fatal("expected error to be returned")
			}
			if got := len(n.errors) > 0; got != tc.wantToast {
				t.Errorf("error toast shown=%v, want %v (%v)", got, tc.wantToast, n.errors)
			}
			if len(n.successes) != 0 {
				t.Error("no success toast on failure")
			}
		})
	}
}

func TestLoginPageLinks(t *testing.T) {
	env, _ := testEnv(anonymousSession())
	p := newLoginPage(env)
	p.init()

	tests := []struct {
		key      tea.KeyType
		path     string
		provider string
	}{
		{tea.KeyCtrlR, guard.RegisterPath, ""},
		{tea.KeyCtrlF, guard.ForgotPasswordPath, ""},
		{tea.KeyCtrlG, guard.CallbackPath, "google"},
		{tea.KeyCtrlO, guard.CallbackPath, "microsoft"},
	}
	for _, tc := range tests {
		_, cmd := p.update(tea.KeyMsg{Type: tc.key})
		if cmd == nil {
			t.Fatalf("%v: expected navigation", tc.key)
		}
		nav, ok := cmd().(navigateMsg)
		if !ok || nav.path != tc.path || nav.provider != tc.provider {
			t.Errorf("%v: got %+v, want path=%s provider=%s", tc.key, nav, tc.path, tc.provider)
		}
	}
	if !p.editing() {
		t.Error("sign-in form owns the keyboard")
	}
}

func TestFormPageFailedSubmitRebuildsForm(t *testing.T) {
	env, _ := testEnv(anonymousSession())
	p := newLoginPage(env).(*formPage)
	p.init()
	first := p.form
	p.busy = true

	p.update(mutatedMsg{mount: "m1", key: "login", err: errors.New("Invalid credentials")})
	if p.busy {
		t.Error("failed submit should re-enable the form")
	}
	if p.form == first {
		t.Error("form should be rebuilt after a failed submit")
	}
}

func TestFormPageIgnoresKeysWhileBusy(t *testing.T) {
	env, _ := testEnv(anonymousSession())
	p := newLoginPage(env).(*formPage)
	p.init()
	p.busy = true
	if _, cmd := p.update(tea.KeyMsg{Type: tea.KeyCtrlR}); cmd != nil {
		t.Error("links are disabled during submit")
	}
	if !strings.Contains(p.view(80, 20), "working") {
		t.Error("expected busy status")
	}
}

func TestForgotPageMovesToResetOnSuccess(t *testing.T) {
	env, _ := testEnv(anonymousSession())
	p := newForgotPage(env).(*formPage)
	p.init()
	_, cmd := p.update(mutatedMsg{mount: "m1", key: "forgot"})
	if cmd == nil {
		t.Fatal("expected navigation after the reset email is sent")
	}
	if nav := cmd().(navigateMsg); nav.path != guard.ResetPasswordPath {
		t.Errorf("navigated to %q", nav.path)
	}
}

func TestResetPageReplacesWithLogin(t *testing.T) {
	env, _ := testEnv(anonymousSession())
	p := newResetPage(env).(*formPage)
	p.init()
	_, cmd := p.update(mutatedMsg{mount: "m1", key: "reset"})
	nav := cmd().(navigateMsg)
	if nav.path != guard.LoginPath || !nav.replace {
		t.Errorf("got %+v, want login with replace", nav)
	}
}

func TestCallbackPageWithoutProvider(t *testing.T) {
	env, n := testEnv(anonymousSession())
	p := newCallbackPage(env, "", nil)
	nav, ok := p.init()().(navigateMsg)
	if !ok || nav.path != guard.LoginPath || !nav.replace {
		t.Fatalf("got %+v, want replace to login", nav)
	}
	if len(n.errors) != 1 || n.errors[0] != "Authentication failed" {
		t.Errorf("errors=%v", n.errors)
	}
}

func TestCallbackPageCompletesSignIn(t *testing.T) {
	s := anonymousSession()
	env, _ := testEnv(s)
	oauth := func(_ context.Context, provider string) (oauthcallback.Result, error) {
		if provider != "google" {
			t.Errorf("provider=%q", provider)
		}
		return oauthcallback.Result{Token: "tok-1"}, nil
	}
	p := newCallbackPage(env, "google", oauth)
	msg := p.init()().(mutatedMsg)
	if msg.err != nil {
		t.Fatalf("unexpected error %v", msg.err)
	}
	if len(s.oauth) != 1 || s.oauth[0] != "tok-1|" {
		t.Errorf("CompleteOAuth calls=%v", s.oauth)
	}
}

func TestCallbackPageFailureReturnsToLogin(t *testing.T) {
	env, n := testEnv(anonymousSession())
	oauth := func(context.Context, string) (oauthcallback.Result, error) {
		return oauthcallback.Result{}, oauthcallback.ErrTimeout
	}
	p := newCallbackPage(env, "microsoft", oauth)
	msg := p.init()().(mutatedMsg)
	if msg.err == nil {
		t.Fatal("expected error")
	}
	if len(n.errors) != 1 {
		t.Errorf("errors=%v", n.errors)
	}
	_, cmd := p.update(msg)
	if nav := cmd().(navigateMsg); nav.path != guard.LoginPath || !nav.replace {
		t.Errorf("got %+v", nav)
	}
}

func TestCallbackPagePastedCallbackURL(t *testing.T) {
	s := anonymousSession()
	env, n := testEnv(s)
	oauth := func(ctx context.Context, _ string) (oauthcallback.Result, error) {
		<-ctx.Done()
		return oauthcallback.Result{}, ctx.Err()
	}
	p := newCallbackPage(env, "google", oauth)
	waiting := make(chan tea.Msg, 1)
	wait := p.init()
	go func() { waiting <- wait() }()

	if _, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("enter with nothing pasted must not complete sign-in")
	}
	if len(n.errors) != 1 {
		t.Fatalf("expected a hint toast, got %v", n.errors)
	}

	p.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("http://localhost:3000/auth/callback?token=tok-9"), Paste: true})
	_, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected sign-in from the pasted URL")
	}
	if msg := cmd().(mutatedMsg); msg.err != nil {
		t.Fatalf("unexpected error %v", msg.err)
	}
	if len(s.oauth) != 1 || s.oauth[0] != "tok-9|" {
		t.Errorf("CompleteOAuth calls=%v", s.oauth)
	}

	select {
	case msg := <-waiting:
		if _, cmd := p.update(msg); cmd != nil {
			t.Error("the abandoned browser wait must not navigate")
		}
	case <-time.After(time.Second):
		t.Fatal("browser wait was not stopped")
	}
	if len(n.errors) != 1 {
		t.Errorf("abandoned wait should not toast: %v", n.errors)
	}
}

func TestDashboardRendersData(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newDashboardPage(env)
	p.update(fetchedMsg{mount: "m1", key: keyBalance, value: &domain.CreditBalance{RemainingCredits: 42, NeedsRefill: true}})
	p.update(fetchedMsg{mount: "m1", key: keyProductivity, value: &domain.ProductivityScore{Score: 81, Grade: "B"}})
	p.update(fetchedMsg{mount: "m1", key: keyActivity, value: &domain.Activity{EmailsProcessed: 12, DraftsGenerated: 3, TotalTimeSavedMinutes: 90}})

	v := p.view(100, 30)
	for _, want := range []string{"Welcome back, Ada", "42 credits left", "running low", "Productivity 81 (B)", "12 emails processed · 3 drafts"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestDashboardErrorBeforeData(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newDashboardPage(env)
	p.update(fetchedMsg{mount: "m1", key: keyBalance, err: &client.HTTPError{StatusCode: 500, Message: "boom"}})
	v := p.view(100, 30)
	if !strings.Contains(v, "boom") || !strings.Contains(v, "press r to retry") {
		t.Errorf("expected error state, got:\n%s", v)
	}
	if _, cmd := p.update(runeKey("r")); cmd == nil {
		t.Error("r should retry")
	}
}

func emailsFixture() *domain.EmailList {
	return &domain.EmailList{
		TotalCount:  2,
		UnreadCount: 1,
		Emails: []domain.Email{
			{ID: "e1", Subject: "Invoice for March", Sender: domain.EmailAddress{Email: "billing@acme.io"}, Priority: domain.PriorityHigh, Status: domain.EmailStatusUnread},
			{ID: "e2", Subject: "Lunch?", Sender: domain.EmailAddress{Email: "sam@example.com", Name: "Sam"}, Priority: domain.PriorityLow, Status: domain.EmailStatusRead},
		},
	}
}

func TestEmailsSearch(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newEmailsPage(env).(*emailsPage)
	p.update(fetchedMsg{mount: "m1", key: p.key(), value: emailsFixture()})

	p.update(runeKey("/"))
	if !p.editing() {
		t.Fatal("search should own the keyboard")
	}
	p.update(runeKey("inv"))
	if got := p.visible(); len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("visible=%v", got)
	}

	p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.editing() || p.query != "" {
		t.Error("esc should clear and leave search")
	}
	if len(p.visible()) != 2 {
		t.Error("all emails visible after clearing search")
	}
}

func TestEmailsIgnoresOtherFilterResults(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newEmailsPage(env).(*emailsPage)
	p.unreadOnly = true
	p.update(fetchedMsg{mount: "m1", key: "emails/list?unread=false", value: emailsFixture()})
	if p.list != nil {
		t.Error("result for a different filter applied")
	}
}

func TestEmailsActionsNeedSelection(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newEmailsPage(env).(*emailsPage)
	for _, k := range []string{"m", "a", "p"} {
		if _, cmd := p.update(runeKey(k)); cmd != nil {
			t.Errorf("%q with no emails should do nothing", k)
		}
	}
	p.update(fetchedMsg{mount: "m1", key: p.key(), value: emailsFixture()})
	for _, k := range []string{"m", "a", "p"} {
		if _, cmd := p.update(runeKey(k)); cmd == nil {
			t.Errorf("%q should issue a write", k)
		}
	}
}

func TestEmailsDrafts(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request, v any) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}
	mux.HandleFunc("POST /api/emails/e1/generate-draft", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, domain.Draft{ID: "d1"})
	})
	mux.HandleFunc("GET /api/emails/drafts/", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, []domain.Draft{
			{ID: "d1", Subject: "Re: Invoice for March", To: []domain.EmailAddress{{Email: "billing@acme.io"}}, BodyText: "Thanks, paid today."},
			{ID: "d2", Subject: "Re: Lunch?"},
		})
	})
	mux.HandleFunc("POST /api/emails/drafts/d1/send", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, domain.SentDraft{Message: "Email sent successfully"})
	})
	mux.HandleFunc("DELETE /api/emails/drafts/d2", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, domain.Message{Message: "Draft deleted successfully"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	env, notes := testEnv(signedInSession())
	env.api = client.New(srv.URL)
	p := newEmailsPage(env).(*emailsPage)
	p.update(fetchedMsg{mount: "m1", key: p.key(), value: emailsFixture()})

	_, cmd := p.update(runeKey("g"))
	if cmd == nil {
		t.Fatal("g should request a draft")
	}
	if msg := cmd().(mutatedMsg); msg.err != nil {
		t.Fatalf("generate draft: %v", msg.err)
	}

	_, cmd = p.update(runeKey("D"))
	if !p.showDrafts || cmd == nil {
		t.Fatal("D should open the drafts list and load it")
	}
	p.update(cmd())
	if len(p.drafts) != 2 {
		t.Fatalf("drafts = %+v", p.drafts)
	}
	v := p.view(100, 30)
	for _, want := range []string{"Drafts · 2", "billing@acme.io", "Thanks, paid today."} {
		if !strings.Contains(v, want) {
			t.Errorf("drafts view missing %q:\n%s", want, v)
		}
	}

	_, cmd = p.update(runeKey("s"))
	if msg := cmd().(mutatedMsg); msg.err != nil {
		t.Fatalf("send draft: %v", msg.err)
	}
	p.update(runeKey("j"))
	_, cmd = p.update(runeKey("x"))
	if msg := cmd().(mutatedMsg); msg.err != nil {
		t.Fatalf("delete draft: %v", msg.err)
	}

	want := []string{
		"POST /api/emails/e1/generate-draft",
		"GET /api/emails/drafts/",
		"POST /api/emails/drafts/d1/send",
		"DELETE /api/emails/drafts/d2",
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	notes.mu.Lock()
	defer notes.mu.Unlock()
	if len(notes.successes) != 3 || notes.successes[1] != "Email sent successfully" {
		t.Errorf("successes = %v", notes.successes)
	}

	p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.showDrafts {
		t.Error("esc should return to the inbox")
	}
}

func TestNextPriority(t *testing.T) {
	tests := map[string]string{
		domain.PriorityLow:    domain.PriorityNormal,
		domain.PriorityNormal: domain.PriorityHigh,
		domain.PriorityHigh:   domain.PriorityUrgent,
		domain.PriorityUrgent: domain.PriorityLow,
		"":                    domain.PriorityNormal,
	}
	for in, want := range tests {
		if got := nextPriority(in); got != want {
			t.Errorf("nextPriority(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCalendarDeleteNeedsConfirmation(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newCalendarPage(env).(*calendarPage)
	start := time.Now().Add(time.Hour)
	p.update(fetchedMsg{mount: "m1", key: keyEvents, value: []domain.CalendarEvent{
		{ID: "ev1", Title: "Standup", StartDateTime: start, EndDateTime: start.Add(15 * time.Minute)},
	}})

	p.update(runeKey("d"))
	if !p.editing() {
		t.Fatal("confirmation prompt should own the keyboard")
	}
	if _, cmd := p.update(runeKey("n")); cmd != nil {
		t.Error("anything but y cancels")
	}

	p.update(runeKey("d"))
	if _, cmd := p.update(runeKey("y")); cmd == nil {
		t.Error("y should delete")
	}
	if !strings.Contains(p.view(100, 30), "Standup") {
		t.Error("event title missing from view")
	}
}

func TestAnalyticsWindowCycles(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newAnalyticsPage(env).(*analyticsPage)
	want := []int{30, 90, 7}
	for _, w := range want {
		p.update(runeKey("w"))
		if p.days() != w {
			t.Errorf("days=%d, want %d", p.days(), w)
		}
	}

	p.update(fetchedMsg{mount: "m1", key: "analytics/dashboard/30", value: &domain.DashboardAnalytics{}})
	if p.stats != nil {
		t.Error("stats for another window applied")
	}
	p.update(fetchedMsg{mount: "m1", key: p.statsKey(), value: &domain.DashboardAnalytics{
		EmailAnalytics: map[string]any{"emails_processed": float64(12)},
	}})
	if !strings.Contains(p.view(100, 30), "emails processed") {
		t.Error("expected email section")
	}
}

func TestIntegrationsSortedAndActions(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newIntegrationsPage(env).(*integrationsPage)
	p.update(fetchedMsg{mount: "m1", key: keyIntegrations, value: &domain.IntegrationStatus{
		Integrations: map[string]domain.Integration{
			"microsoft": {Connected: false},
			"google":    {Connected: true, Services: []string{"gmail", "calendar"}},
		},
	}})
	if p.providers[0] != "google" || p.providers[1] != "microsoft" {
		t.Errorf("providers=%v", p.providers)
	}
	if _, cmd := p.update(runeKey("s")); cmd == nil {
		t.Error("s should sync the selected provider")
	}
	if !strings.Contains(p.view(100, 30), "gmail, calendar") {
		t.Error("services missing")
	}
}

func TestCreditsRenders(t *testing.T) {
	env, _ := testEnv(signedInSession())
	env.stripe = "pk_test_123"
	p := newCreditsPage(env).(*creditsPage)
	p.update(fetchedMsg{mount: "m1", key: keyPackages, value: []domain.CreditPackage{
		{PackageType: "starter", Credits: 100, PriceUSD: 9.99, Description: "Try it"},
	}})
	p.update(fetchedMsg{mount: "m1", key: keyBalance, value: &domain.CreditBalance{RemainingCredits: 7}})
	p.update(fetchedMsg{mount: "m1", key: "payments/intent", value: &domain.PaymentIntent{PaymentIntentID: "pi_1", Credits: 100, Amount: 9.99, Status: "requires_payment_method"}})

	v := p.view(100, 30)
	for _, want := range []string{"7 credits", "starter", "pi_1", "pk_test_123"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
	if _, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Error("enter should start a purchase")
	}
	if _, cmd := p.update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("second enter while buying should be ignored")
	}
}

func TestSettingsEditFormAndCancel(t *testing.T) {
	env, _ := testEnv(signedInSession())
	p := newSettingsPage(env).(*settingsPage)
	if _, cmd := p.update(runeKey("e")); cmd != nil || p.editing() {
		t.Fatal("edit needs the profile loaded first")
	}
	p.update(fetchedMsg{mount: "m1", key: keyProfile, value: testUser})
	p.update(runeKey("e"))
	if !p.editing() {
		t.Fatal("e should open the edit form")
	}
	if p.draft.profile.FullName != "Ada" {
		t.Errorf("draft=%+v", p.draft.profile)
	}
	p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.editing() {
		t.Error("esc should close the form")
	}
}

func TestClockTime(t *testing.T) {
	for _, ok := range []string{"", "09:00", "23:59"} {
		if err := clockTime(ok); err != nil {
			t.Errorf("clockTime(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"9am", "25:00", "12"} {
		if err := clockTime(bad); err == nil {
			t.Errorf("clockTime(%q) should fail", bad)
		}
	}
}
