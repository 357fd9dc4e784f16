package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/repository"
)

// opLog records the order of persistence and push operations so tests
// can assert that durable writes happen before realtime pushes.
type opLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *opLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *opLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*domain.User)}
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0)
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id int64, update repository.UserProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

type memApplicationRepo struct {
	mu           sync.Mutex
	seq          int64
	applications map[int64]*domain.Application
	users        *memUserRepo
}

func newMemApplicationRepo(users *memUserRepo) *memApplicationRepo {
	return &memApplicationRepo{applications: make(map[int64]*domain.Application), users: users}
}

var _ repository.ApplicationRepository = (*memApplicationRepo)(nil)

func (r *memApplicationRepo) Create(_ context.Context, application *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	application.ID = r.seq
	application.CreatedAt = time.Now()
	application.UpdatedAt = application.CreatedAt
	clone := *application
	r.applications[application.ID] = &clone
	return nil
}

func (r *memApplicationRepo) GetByID(_ context.Context, id int64) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.applications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (r *memApplicationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Application, 0)
	for _, app := range r.applications {
		if app.UserID == userID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memApplicationRepo) ListAll(ctx context.Context) ([]domain.ApplicationWithRequester, error) {
	r.mu.Lock()
	apps := make([]domain.Application, 0, len(r.applications))
	for _, app := range r.applications {
		apps = append(apps, *app)
	}
	r.mu.Unlock()
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID > apps[j].ID })

	out := make([]domain.ApplicationWithRequester, 0, len(apps))
	for _, app := range apps {
		row := domain.ApplicationWithRequester{Application: app}
		if user, err := r.users.GetByID(ctx, app.UserID); err == nil {
			row.FirstName = user.FirstName
			row.LastName = user.LastName
			row.Email = user.Email
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *memApplicationRepo) UpdateStatus(_ context.Context, id int64, status domain.ApplicationStatus) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.applications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	app.Status = status
	app.UpdatedAt = time.Now()
	clone := *app
	return &clone, nil
}

type memNotificationRepo struct {
	mu         sync.Mutex
	seq        int64
	rows       map[int64]*domain.Notification
	failCreate bool
	log        *opLog
}

func newMemNotificationRepo(log *opLog) *memNotificationRepo {
	return &memNotificationRepo{rows: make(map[int64]*domain.Notification), log: log}
}

var _ repository.NotificationRepository = (*memNotificationRepo)(nil)

func (r *memNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("store unavailable")
	}
	r.seq++
	notification.ID = r.seq
	notification.CreatedAt = time.Now()
	clone := *notification
	r.rows[notification.ID] = &clone
	if r.log != nil {
		r.log.add(fmt.Sprintf("persist:%d", notification.UserID))
	}
	return nil
}

func (r *memNotificationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id, userID int64) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	row.IsRead = true
	clone := *row
	return &clone, nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			row.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (r *memNotificationRepo) Delete(_ context.Context, id, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

type pushRecord struct {
	target  string
	payload any
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []pushRecord
	log    *opLog
}

func newRecordingPusher(log *opLog) *recordingPusher {
	return &recordingPusher{log: log}
}

var _ Pusher = (*recordingPusher)(nil)

func (p *recordingPusher) SendToSubject(subjectID int64, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushRecord{target: fmt.Sprintf("subject:%d", subjectID), payload: payload})
	if p.log != nil {
		p.log.add(fmt.Sprintf("push:subject:%d", subjectID))
	}
}

func (p *recordingPusher) SendToGroup(groupKey string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushRecord{target: "group:" + groupKey, payload: payload})
	if p.log != nil {
		p.log.add("push:group:" + groupKey)
	}
}

func (p *recordingPusher) records() []pushRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushRecord(nil), p.pushes...)
}
