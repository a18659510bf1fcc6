// Package stub is the in-memory development backend. It implements the same
// REST contract the production API serves, so the client SDK and CLI can run
// against localhost with zero infrastructure.
package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// account pairs a user record with its password hash. The hash never leaves
// the store.
type account struct {
	user domain.User
	hash []byte
}

// Store holds all stub data behind one lock. Collections are small enough
// that every read path is a scan.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*account
	declarations map[string]*domain.Declaration
	items        map[domain.ItemKind]map[string]*domain.LineItem
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]*account),
		declarations: make(map[string]*domain.Declaration),
		items: map[domain.ItemKind]map[string]*domain.LineItem{
			domain.KindAsset:     {},
			domain.KindIncome:    {},
			domain.KindLiability: {},
		},
	}
}

// ---- users ----

// CreateUser registers an account. Document number and email are unique.
func (s *Store) CreateUser(req domain.CreateUserRequest) (*domain.User, error) {
	if req.DocumentNumber == "" {
		return nil, &domain.ErrValidation{Field: "documentNumber", Message: "must not be empty"}
	}
	if req.FullName == "" {
		return nil, &domain.ErrValidation{Field: "fullName", Message: "must not be empty"}
	}
	if len(req.Password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "must be at least 6 characters"}
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.users {
		if a.user.DocumentNumber == req.DocumentNumber {
			return nil, &domain.ErrConflict{Message: "document number already registered"}
		}
		if req.Email != "" && strings.EqualFold(a.user.Email, req.Email) {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:             uuid.New().String(),
		DocumentNumber: req.DocumentNumber,
		FullName:       req.FullName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.users[user.ID] = &account{user: user, hash: hash}
	return &user, nil
}

// Authenticate checks credentials and returns the account's user record.
// Deactivated accounts cannot log in.
func (s *Store) Authenticate(documentNumber, password string) (*domain.User, error) {
	s.mu.RLock()
	var acct *account
	for _, a := range s.users {
		if a.user.DocumentNumber == documentNumber {
			acct = a
			break
		}
	}
	s.mu.RUnlock()

	if acct == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if !acct.user.IsActive {
		return nil, &domain.ErrUnauthorized{Message: "account is deactivated"}
	}
	user := acct.user
	return &user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.users[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	user := a.user
	return &user, nil
}

// ListUsers returns one page of users plus the collection total.
func (s *Store) ListUsers(limit, offset int) ([]domain.User, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.User, 0, len(s.users))
	for _, a := range s.users {
		all = append(all, a.user)
	}
	sortByCreated(all, func(u domain.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return slicePage(all, limit, offset), len(all)
}

// UpdateUser applies the mutable fields of a user record.
func (s *Store) UpdateUser(id, fullName, email, phoneNumber string, isActive bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.users[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	if fullName == "" {
		return nil, &domain.ErrValidation{Field: "fullName", Message: "must not be empty"}
	}
	for otherID, other := range s.users {
		if otherID != id && email != "" && strings.EqualFold(other.user.Email, email) {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
	}

	a.user.FullName = fullName
	a.user.Email = email
	a.user.PhoneNumber = phoneNumber
	a.user.IsActive = isActive
	a.user.UpdatedAt = time.Now().UTC()
	user := a.user
	return &user, nil
}

// DeleteUser removes a user and everything they own: declarations and the
// line items on them.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return &domain.ErrNotFound{Resource: "user", ID: id}
	}
	for declID, d := range s.declarations {
		if d.UserID == id {
			s.deleteDeclarationLocked(declID)
		}
	}
	delete(s.users, id)
	return nil
}

// UserStats computes the aggregate user counters.
func (s *Store) UserStats() domain.UserStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.UserStats{TotalUsers: len(s.users)}
	for _, a := range s.users {
		if a.user.IsActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if a.user.Role == domain.RoleAdmin {
			stats.Admins++
		} else {
			stats.Customers++
		}
	}
	return stats
}

// ---- declarations ----

// CreateDeclaration opens a PENDING declaration. At most one declaration may
// exist per (user, taxableYear).
func (s *Store) CreateDeclaration(req domain.CreateDeclarationRequest) (*domain.Declaration, error) {
	if req.TaxableYear < domain.MinTaxableYear || req.TaxableYear > domain.MaxTaxableYear {
		return nil, &domain.ErrValidation{Field: "taxableYear", Message: "out of range"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.UserID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: req.UserID}
	}
	for _, d := range s.declarations {
		if d.UserID == req.UserID && d.TaxableYear == req.TaxableYear {
			return nil, &domain.ErrConflict{Message: "declaration already exists for this taxable year"}
		}
	}

	now := time.Now().UTC()
	decl := domain.Declaration{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		TaxableYear: req.TaxableYear,
		Status:      domain.StatusPending,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.declarations[decl.ID] = &decl
	return cloneDecl(&decl), nil
}

// GetDeclaration fetches a declaration by id.
func (s *Store) GetDeclaration(id string) (*domain.Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.declarations[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "declaration", ID: id}
	}
	return cloneDecl(d), nil
}

// ListDeclarations returns one page, optionally scoped to one user.
func (s *Store) ListDeclarations(limit, offset int, userID string) ([]domain.Declaration, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Declaration, 0, len(s.declarations))
	for _, d := range s.declarations {
		if userID != "" && d.UserID != userID {
			continue
		}
		all = append(all, *d)
	}
	sortByCreated(all, func(d domain.Declaration) (time.Time, string) { return d.CreatedAt, d.ID })
	return slicePage(all, limit, offset), len(all)
}

// UpdateDeclaration applies the mutable fields of a declaration.
func (s *Store) UpdateDeclaration(id string, status domain.DeclarationStatus, description string) (*domain.Declaration, error) {
	if status != domain.StatusPending && status != domain.StatusCompleted {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.declarations[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "declaration", ID: id}
	}
	d.Status = status
	d.Description = description
	d.UpdatedAt = time.Now().UTC()
	return cloneDecl(d), nil
}

// DeleteDeclaration removes a declaration and cascades to its line items.
func (s *Store) DeleteDeclaration(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.declarations[id]; !ok {
		return &domain.ErrNotFound{Resource: "declaration", ID: id}
	}
	s.deleteDeclarationLocked(id)
	return nil
}

func (s *Store) deleteDeclarationLocked(id string) {
	for _, kind := range []domain.ItemKind{domain.KindAsset, domain.KindIncome, domain.KindLiability} {
		for itemID, item := range s.items[kind] {
			if item.DeclarationID == id {
				delete(s.items[kind], itemID)
			}
		}
	}
	delete(s.declarations, id)
}

// DeclarationStats computes the aggregate declaration counters.
func (s *Store) DeclarationStats() domain.DeclarationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	currentYear := time.Now().Year()
	stats := domain.DeclarationStats{TotalDeclarations: len(s.declarations)}
	for _, d := range s.declarations {
		switch d.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusCompleted:
			stats.Completed++
		}
		if d.TaxableYear == currentYear {
			stats.CurrentYear++
		}
	}
	return stats
}

// RecentActivity returns the latest touched declarations, newest first.
func (s *Store) RecentActivity(limit int) []domain.ActivityEntry {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ActivityEntry, 0, len(s.declarations))
	for _, d := range s.declarations {
		name := ""
		if a, ok := s.users[d.UserID]; ok {
			name = a.user.FullName
		}
		entries = append(entries, domain.ActivityEntry{
			DeclarationID: d.ID,
			UserID:        d.UserID,
			UserFullName:  name,
			TaxableYear:   d.TaxableYear,
			Status:        d.Status,
			UpdatedAt:     d.UpdatedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		}
		return entries[i].DeclarationID < entries[j].DeclarationID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ---- line items ----

// CreateItem adds a row to a declaration.
func (s *Store) CreateItem(kind domain.ItemKind, req domain.CreateLineItemRequest) (*domain.LineItem, error) {
	if req.Concept == "" {
		return nil, &domain.ErrValidation{Field: "concept", Message: "must not be empty"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.declarations[req.DeclarationID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "declaration", ID: req.DeclarationID}
	}

	now := time.Now().UTC()
	item := domain.LineItem{
		ID:            uuid.New().String(),
		DeclarationID: req.DeclarationID,
		Concept:       req.Concept,
		Amount:        req.Amount,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.items[kind][item.ID] = &item
	s.touchDeclarationLocked(req.DeclarationID, now)
	return cloneItem(&item), nil
}

// GetItem fetches one row by id.
func (s *Store) GetItem(kind domain.ItemKind, id string) (*domain.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[kind][id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: string(kind), ID: id}
	}
	return cloneItem(item), nil
}

// ListItems returns one page, optionally scoped to one declaration.
func (s *Store) ListItems(kind domain.ItemKind, limit, offset int, declarationID string) ([]domain.LineItem, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.LineItem, 0, len(s.items[kind]))
	for _, item := range s.items[kind] {
		if declarationID != "" && item.DeclarationID != declarationID {
			continue
		}
		all = append(all, *item)
	}
	sortByCreated(all, func(i domain.LineItem) (time.Time, string) { return i.CreatedAt, i.ID })
	return slicePage(all, limit, offset), len(all)
}

// UpdateItem applies the mutable fields of a row: concept and amount.
func (s *Store) UpdateItem(kind domain.ItemKind, id, concept string, amount domain.Amount) (*domain.LineItem, error) {
	if concept == "" {
		return nil, &domain.ErrValidation{Field: "concept", Message: "must not be empty"}
	}
	if amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[kind][id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: string(kind), ID: id}
	}
	now := time.Now().UTC()
	item.Concept = concept
	item.Amount = amount
	item.UpdatedAt = now
	s.touchDeclarationLocked(item.DeclarationID, now)
	return cloneItem(item), nil
}

// DeleteItem removes one row.
func (s *Store) DeleteItem(kind domain.ItemKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[kind][id]
	if !ok {
		return &domain.ErrNotFound{Resource: string(kind), ID: id}
	}
	delete(s.items[kind], id)
	s.touchDeclarationLocked(item.DeclarationID, time.Now().UTC())
	return nil
}

func (s *Store) touchDeclarationLocked(id string, now time.Time) {
	if d, ok := s.declarations[id]; ok {
		d.UpdatedAt = now
	}
}

// ---- helpers ----

func cloneDecl(d *domain.Declaration) *domain.Declaration {
	c := *d
	return &c
}

func cloneItem(i *domain.LineItem) *domain.LineItem {
	c := *i
	return &c
}

// sortByCreated orders a slice by creation time, newest first, so fresh
// rows surface on page 1. The id tie breaker keeps paging stable.
func sortByCreated[T any](s []T, key func(T) (time.Time, string)) {
	sort.Slice(s, func(i, j int) bool {
		ti, idi := key(s[i])
		tj, idj := key(s[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}

// slicePage cuts one page out of the full slice.
func slicePage[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
