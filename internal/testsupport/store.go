// Package testsupport provides in-memory implementations of the store, cache
// and bus ports with the transaction semantics the services rely on.
package testsupport

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jnst/store-backoffice/internal/model"
)

type txMarker struct{ store *Store }

type inboxKey struct {
	messageID uuid.UUID
	consumer  string
}

type storeData struct {
	categories map[int64]model.Category
	products   map[int64]model.Product
	users      map[int64]model.User
	outbox     map[int64]model.OutboxEvent
	inbox      map[inboxKey]time.Time
	sequences  map[string]int64
}

func (d storeData) clone() storeData {
	return storeData{
		categories: maps.Clone(d.categories),
		products:   maps.Clone(d.products),
		users:      maps.Clone(d.users),
		outbox:     maps.Clone(d.outbox),
		inbox:      maps.Clone(d.inbox),
		sequences:  maps.Clone(d.sequences),
	}
}

// Store is an in-memory primary store. Transactions are serialized; a failed
// transaction restores the snapshot taken when it began.
type Store struct {
	mu   sync.Mutex
	data storeData

	// Now stamps outbox rows; defaults to time.Now.
	Now func() time.Time

	failOutbox error
	failCommit error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: storeData{
			categories: make(map[int64]model.Category),
			products:   make(map[int64]model.Product),
			users:      make(map[int64]model.User),
			outbox:     make(map[int64]model.OutboxEvent),
			inbox:      make(map[inboxKey]time.Time),
			sequences:  make(map[string]int64),
		},
		Now: time.Now,
	}
}

// FailOutboxWrites makes every outbox insert fail with err until reset with nil.
func (s *Store) FailOutboxWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOutbox = err
}

// FailCommits makes every commit fail with err until reset with nil.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

// WithTransaction implements repository.TransactionManager.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()

	err := fn(context.WithValue(ctx, txMarker{}, txMarker{store: s}))
	if err == nil {
		err = ctx.Err()
	}

	if err == nil && s.failCommit != nil {
		err = s.failCommit
	}

	if err != nil {
		s.data = snapshot
		return err
	}

	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	marker, ok := ctx.Value(txMarker{}).(txMarker)
	return ok && marker.store == s
}

// lock acquires the store unless ctx already holds it through a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}

	s.mu.Lock()

	return s.mu.Unlock
}

// id returns the next serial id of table, like a BIGSERIAL column.
func (s *Store) id(table string) int64 {
	s.data.sequences[table]++
	return s.data.sequences[table]
}

// Categories returns the category repository.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Products returns the product repository.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Users returns the user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Outbox returns the outbox repository.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }

// Inbox returns the inbox repository.
func (s *Store) Inbox() *InboxRepository { return &InboxRepository{s: s} }

// Reports returns the report repository.
func (s *Store) Reports() *ReportRepository { return &ReportRepository{s: s} }

// OutboxEvents returns a copy of every outbox row ordered by id.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]model.OutboxEvent, 0, len(s.data.outbox))
	for _, e := range s.data.outbox {
		events = append(events, e)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	return events
}

// InboxSize returns the number of inbox markers.
func (s *Store) InboxSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data.inbox)
}

// CategoryRepository is an in-memory repository.CategoryRepository.
type CategoryRepository struct{ s *Store }

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, params *model.CreateCategoryParams) (*model.Category, error) {
	defer r.s.lock(ctx)()

	c := model.Category{ID: r.s.id("categories"), Name: params.Name}
	r.s.data.categories[c.ID] = c

	return &c, nil
}

// GetByID returns a category or model.ErrCategoryNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, model.ErrCategoryNotFound
	}

	return &c, nil
}

// List returns categories ordered by id.
func (r *CategoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	defer r.s.lock(ctx)()

	out := make([]*model.Category, 0, len(r.s.data.categories))
	for _, c := range r.s.data.categories {
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// Update renames a category.
func (r *CategoryRepository) Update(ctx context.Context, params *model.UpdateCategoryParams) (*model.Category, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.categories[params.ID]; !ok {
		return nil, model.ErrCategoryNotFound
	}

	c := model.Category{ID: params.ID, Name: params.Name}
	r.s.data.categories[c.ID] = c

	return &c, nil
}

// Delete removes a category, enforcing ON DELETE RESTRICT.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.categories[id]; !ok {
		return model.ErrCategoryNotFound
	}

	for _, p := range r.s.data.products {
		if p.CategoryID == id {
			return model.WrapError(model.KindConflict, errors.New("foreign key violation"), "%s", model.ErrCategoryInUse.Message)
		}
	}

	delete(r.s.data.categories, id)

	return nil
}

// Exists reports whether a category exists.
func (r *CategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock(ctx)()

	_, ok := r.s.data.categories[id]

	return ok, nil
}

// CountProducts counts the products of a category.
func (r *CategoryRepository) CountProducts(ctx context.Context, id int64) (int64, error) {
	ids, err := r.ProductIDs(ctx, id)
	return int64(len(ids)), err
}

// ProductIDs lists the product ids of a category.
func (r *CategoryRepository) ProductIDs(ctx context.Context, id int64) ([]int64, error) {
	defer r.s.lock(ctx)()

	var ids []int64

	for _, p := range r.s.data.products {
		if p.CategoryID == id {
			ids = append(ids, p.ID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// ProductRepository is an in-memory repository.ProductRepository.
type ProductRepository struct{ s *Store }

func (r *ProductRepository) checkCategory(id int64) error {
	if _, ok := r.s.data.categories[id]; !ok {
		return model.WrapError(model.KindConflict, errors.New("foreign key violation"), "integrity conflict on products_category_id_fkey")
	}

	return nil
}

// Create inserts a product, enforcing the category foreign key.
func (r *ProductRepository) Create(ctx context.Context, params *model.CreateProductParams) (*model.Product, error) {
	defer r.s.lock(ctx)()

	if err := r.checkCategory(params.CategoryID); err != nil {
		return nil, err
	}

	p := model.Product{
		ID:          r.s.id("products"),
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Stock:       params.Stock,
		Image:       params.Image,
		CategoryID:  params.CategoryID,
	}
	r.s.data.products[p.ID] = p

	return &p, nil
}

func (r *ProductRepository) detail(p model.Product) *model.ProductDetail {
	return &model.ProductDetail{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Stock:        p.Stock,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: r.s.data.categories[p.CategoryID].Name,
	}
}

// GetWithCategory returns a product joined with its category.
func (r *ProductRepository) GetWithCategory(ctx context.Context, id int64) (*model.ProductDetail, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}

	return r.detail(p), nil
}

// ListWithCategory returns products joined with their categories, by id.
func (r *ProductRepository) ListWithCategory(ctx context.Context) ([]*model.ProductDetail, error) {
	defer r.s.lock(ctx)()

	out := make([]*model.ProductDetail, 0, len(r.s.data.products))
	for _, p := range r.s.data.products {
		out = append(out, r.detail(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// Update replaces a product.
func (r *ProductRepository) Update(ctx context.Context, params *model.UpdateProductParams) (*model.Product, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.products[params.ID]; !ok {
		return nil, model.ErrProductNotFound
	}

	if err := r.checkCategory(params.CategoryID); err != nil {
		return nil, err
	}

	p := model.Product{
		ID:          params.ID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Stock:       params.Stock,
		Image:       params.Image,
		CategoryID:  params.CategoryID,
	}
	r.s.data.products[p.ID] = p

	return &p, nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.products[id]; !ok {
		return model.ErrProductNotFound
	}

	delete(r.s.data.products, id)

	return nil
}

// Exists reports whether a product exists.
func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock(ctx)()

	_, ok := r.s.data.products[id]

	return ok, nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct{ s *Store }

// Create inserts a user, enforcing the unique email index.
func (r *UserRepository) Create(ctx context.Context, params *model.CreateUserParams) (*model.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.Email == params.Email {
			return nil, model.ErrEmailTaken
		}
	}

	u := model.User{
		ID:           r.s.id("users"),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    r.s.Now(),
	}
	r.s.data.users[u.ID] = u

	return &u, nil
}

// GetByEmail returns a user or model.ErrUserNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, model.ErrUserNotFound
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}

	return err == nil, err
}

// SetRole changes a user's role.
func (r *UserRepository) SetRole(email, role string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, u := range r.s.data.users {
		if u.Email == email {
			u.Role = role
			r.s.data.users[id] = u
		}
	}
}

// OutboxRepository is an in-memory repository.OutboxRepository.
type OutboxRepository struct{ s *Store }

// CreateEvent inserts a pending event due immediately.
func (r *OutboxRepository) CreateEvent(ctx context.Context, params *model.CreateOutboxEventParams) (*model.OutboxEvent, error) {
	defer r.s.lock(ctx)()

	if r.s.failOutbox != nil {
		return nil, r.s.failOutbox
	}

	now := r.s.Now()
	e := model.OutboxEvent{
		ID:            r.s.id("outbox_events"),
		MessageID:     params.MessageID,
		AggregateID:   params.AggregateID,
		EventType:     params.EventType,
		Payload:       params.Payload,
		Status:        model.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	r.s.data.outbox[e.ID] = e

	return &e, nil
}

// FetchDue returns deliverable events due at now, by id.
func (r *OutboxRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock(ctx)()

	return r.collect(limit, func(e model.OutboxEvent) bool {
		return e.Status.Deliverable() && !e.NextAttemptAt.After(now)
	}), nil
}

// MarkAsPublished marks an event delivered.
func (r *OutboxRepository) MarkAsPublished(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, func(e *model.OutboxEvent) bool {
		e.Status = model.OutboxStatusDelivered
		e.Attempts++
		e.PublishedAt = &at
		e.LastError = ""

		return true
	})
}

// ScheduleRetry moves an event to retry_wait.
func (r *OutboxRepository) ScheduleRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, func(e *model.OutboxEvent) bool {
		e.Status = model.OutboxStatusRetryWait
		e.Attempts = attempts
		e.NextAttemptAt = next
		e.LastError = lastErr

		return true
	})
}

// MarkAsFailed parks an event.
func (r *OutboxRepository) MarkAsFailed(ctx context.Context, id int64, attempts int, lastErr string) error {
	return r.update(ctx, id, func(e *model.OutboxEvent) bool {
		e.Status = model.OutboxStatusFailed
		e.Attempts = attempts
		e.LastError = lastErr

		return true
	})
}

// ListFailed returns parked events by id.
func (r *OutboxRepository) ListFailed(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock(ctx)()

	return r.collect(limit, func(e model.OutboxEvent) bool {
		return e.Status == model.OutboxStatusFailed
	}), nil
}

// Requeue returns a parked event to pending.
func (r *OutboxRepository) Requeue(ctx context.Context, id int64, now time.Time) error {
	return r.update(ctx, id, func(e *model.OutboxEvent) bool {
		if e.Status != model.OutboxStatusFailed {
			return false
		}

		e.Status = model.OutboxStatusPending
		e.Attempts = 0
		e.NextAttemptAt = now
		e.LastError = ""

		return true
	})
}

func (r *OutboxRepository) update(ctx context.Context, id int64, fn func(e *model.OutboxEvent) bool) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.data.outbox[id]
	if !ok || !fn(&e) {
		return model.ErrOutboxEventNotFound
	}

	r.s.data.outbox[id] = e

	return nil
}

func (r *OutboxRepository) collect(limit int, match func(model.OutboxEvent) bool) []*model.OutboxEvent {
	out := make([]*model.OutboxEvent, 0)

	for _, e := range r.s.data.outbox {
		if match(e) {
			out = append(out, &e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// InboxRepository is an in-memory repository.InboxRepository.
type InboxRepository struct{ s *Store }

// Record inserts the marker unless it exists.
func (r *InboxRepository) Record(ctx context.Context, messageID uuid.UUID, consumer string) (bool, error) {
	defer r.s.lock(ctx)()

	key := inboxKey{messageID: messageID, consumer: consumer}
	if _, ok := r.s.data.inbox[key]; ok {
		return false, nil
	}

	r.s.data.inbox[key] = r.s.Now()

	return true, nil
}

// ReportRepository is an in-memory repository.ReportRepository.
type ReportRepository struct{ s *Store }

// InventorySummary aggregates price and count per category name, by value.
func (r *ReportRepository) InventorySummary(ctx context.Context) ([]*model.InventorySummary, error) {
	defer r.s.lock(ctx)()

	byName := make(map[string]*model.InventorySummary)

	for _, p := range r.s.data.products {
		name := r.s.data.categories[p.CategoryID].Name

		row, ok := byName[name]
		if !ok {
			row = &model.InventorySummary{CategoryName: name}
			byName[name] = row
		}

		row.TotalProducts++
		row.StockValue += p.Price
	}

	out := make([]*model.InventorySummary, 0, len(byName))
	for _, row := range byName {
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StockValue > out[j].StockValue })

	return out, nil
}
