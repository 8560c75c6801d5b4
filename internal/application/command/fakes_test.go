package command

import (
	"context"
	"sort"
	"sync"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// fakeApplicationRepo is an in-memory application.Repository that enforces
// the same invariants the postgres implementation does, including pending
// uniqueness at insert time.
type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]*application.Application

	failCreate error
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[string]*application.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.apps {
		if existing.ApplicantID == app.ApplicantID && existing.Status == application.StatusPending {
			return shared.ErrDuplicatePending
		}
	}
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, shared.ErrApplicationNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *fakeApplicationRepo) GetPendingByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ApplicantID == applicantID && app.Status == application.StatusPending {
			cp := *app
			return &cp, nil
		}
	}
	return nil, shared.ErrApplicationNotFound
}

func (r *fakeApplicationRepo) GetLatestByApplicant(ctx context.Context, applicantID string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []*application.Application
	for _, app := range r.apps {
		if app.ApplicantID == applicantID {
			candidates = append(candidates, app)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.ErrApplicationNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SubmittedAt.After(candidates[j].SubmittedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeApplicationRepo) GetLatestRejected(ctx context.Context, applicantID string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []*application.Application
	for _, app := range r.apps {
		if app.ApplicantID == applicantID && app.Status == application.StatusRejected {
			candidates = append(candidates, app)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.ErrNoRejectedRecord
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SubmittedAt.After(candidates[j].SubmittedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeApplicationRepo) UpdateDecision(ctx context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok {
		return shared.ErrApplicationNotFound
	}
	if stored.Status != application.StatusPending {
		return shared.ErrNotPending
	}
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r *fakeApplicationRepo) UpdateOverride(ctx context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok {
		return shared.ErrApplicationNotFound
	}
	if stored.Status != application.StatusRejected {
		return shared.ErrNoRejectedRecord
	}
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r *fakeApplicationRepo) UpdateNotificationStatus(ctx context.Context, id string, status application.NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return shared.ErrApplicationNotFound
	}
	app.NotificationStatus = status
	return nil
}

func (r *fakeApplicationRepo) ListByApplicant(ctx context.Context, applicantID string, status *application.Status, limit int) ([]*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*application.Application
	for _, app := range r.apps {
		if app.ApplicantID != applicantID {
			continue
		}
		if status != nil && app.Status != *status {
			continue
		}
		cp := *app
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListPending(ctx context.Context, limit, offset int) ([]*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*application.Application
	for _, app := range r.apps {
		if app.Status == application.StatusPending {
			cp := *app
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) CountByStatus(ctx context.Context) (map[application.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[application.Status]int)
	for _, app := range r.apps {
		out[app.Status]++
	}
	return out, nil
}

func (r *fakeApplicationRepo) stored(id string) *application.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apps[id]
}

// fakeRoster serves canned live members.
type fakeRoster struct {
	members map[string]*member.Member
	err     error
}

func (f *fakeRoster) FetchMember(ctx context.Context, userID string) (*member.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, shared.ErrNotInCommunity
	}
	return m, nil
}

func (f *fakeRoster) ListMembers(ctx context.Context) ([]*member.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*member.Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

// fakeRoleManager records role mutations for the eligibility handler.
type fakeRoleManager struct {
	added   []string
	removed []string
	err     error
}

func (f *fakeRoleManager) AddRole(ctx context.Context, userID string, role member.Role, reason string) error {
	f.added = append(f.added, userID+":"+string(role))
	return f.err
}

func (f *fakeRoleManager) RemoveRole(ctx context.Context, userID string, role member.Role, reason string) error {
	f.removed = append(f.removed, userID+":"+string(role))
	return f.err
}

// fakeRoleSyncer records lifecycle role side effects. It never fails, like
// the real synchronizer's contract.
type fakeRoleSyncer struct {
	pendingGranted []string
	pendingRevoked []string
	memberGranted  []string
}

func (f *fakeRoleSyncer) GrantPendingMarker(ctx context.Context, applicantID string) {
	f.pendingGranted = append(f.pendingGranted, applicantID)
}

func (f *fakeRoleSyncer) RevokePendingMarker(ctx context.Context, applicantID string) {
	f.pendingRevoked = append(f.pendingRevoked, applicantID)
}

func (f *fakeRoleSyncer) GrantFullMember(ctx context.Context, applicantID string) {
	f.memberGranted = append(f.memberGranted, applicantID)
}

// fakeDispatcher records deliveries with a configurable outcome.
type fakeDispatcher struct {
	dmOK        bool
	broadcastOK bool

	dms        []string
	broadcasts []notification.Broadcast
}

func (f *fakeDispatcher) NotifyUser(ctx context.Context, userID string, msg notification.Message) bool {
	f.dms = append(f.dms, userID)
	return f.dmOK
}

func (f *fakeDispatcher) Announce(ctx context.Context, ch notification.Broadcast, msg notification.Message) bool {
	f.broadcasts = append(f.broadcasts, ch)
	return f.broadcastOK
}

// fakeAuditor records appended entries.
type auditCall struct {
	actorID   string
	action    audit.Action
	subjectID string
	metadata  map[string]any
}

type fakeAuditor struct {
	calls []auditCall
}

func (f *fakeAuditor) Record(ctx context.Context, actorID string, action audit.Action, subjectID string, metadata map[string]any) {
	f.calls = append(f.calls, auditCall{actorID: actorID, action: action, subjectID: subjectID, metadata: metadata})
}

func (f *fakeAuditor) actions() []audit.Action {
	out := make([]audit.Action, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.action)
	}
	return out
}
