package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// table is an id-keyed set of rows held by value.
type table[T any] struct {
	entity string
	rows   map[int64]T
	lastID int64
}

func newTable[T any](entity string) *table[T] {
	return &table[T]{entity: entity, rows: make(map[int64]T)}
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{entity: t.entity, rows: make(map[int64]T, len(t.rows)), lastID: t.lastID}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (t *table[T]) get(id int64) (*T, error) {
	v, ok := t.rows[id]
	if !ok {
		return nil, apperrors.NotFound(t.entity, id)
	}
	return &v, nil
}

// insert stores v under id, or under the next free id when id is zero.
func (t *table[T]) insert(id int64, v T) (int64, error) {
	if id == 0 {
		id = t.lastID + 1
	}
	if _, exists := t.rows[id]; exists {
		return 0, apperrors.NewConflictError("duplicate key", apperrors.NotFound(t.entity, id))
	}
	t.rows[id] = v
	if id > t.lastID {
		t.lastID = id
	}
	return id, nil
}

func (t *table[T]) replace(id int64, v T) error {
	if _, ok := t.rows[id]; !ok {
		return apperrors.NotFound(t.entity, id)
	}
	t.rows[id] = v
	return nil
}

func (t *table[T]) remove(id int64) error {
	if _, ok := t.rows[id]; !ok {
		return apperrors.NotFound(t.entity, id)
	}
	delete(t.rows, id)
	return nil
}

// filter returns copies of matching rows in id order.
func (t *table[T]) filter(keep func(*T) bool) []*T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*T, 0)
	for _, id := range ids {
		v := t.rows[id]
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out
}

type memState struct {
	orders     *table[models.Order]
	lines      *table[models.OrderLine]
	users      *table[models.User]
	categories *table[models.Category]
	brands     *table[models.Brand]
	products   *table[models.Product]
	reviews    *table[models.Review]
}

func newMemState() *memState {
	return &memState{
		orders:     newTable[models.Order]("order"),
		lines:      newTable[models.OrderLine]("order line"),
		users:      newTable[models.User]("user"),
		categories: newTable[models.Category]("category"),
		brands:     newTable[models.Brand]("brand"),
		products:   newTable[models.Product]("product"),
		reviews:    newTable[models.Review]("review"),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		orders:     st.orders.clone(),
		lines:      st.lines.clone(),
		users:      st.users.clone(),
		categories: st.categories.clone(),
		brands:     st.brands.clone(),
		products:   st.products.clone(),
		reviews:    st.reviews.clone(),
	}
}

// access runs fn against the state, taking the store lock when needed.
type access func(ctx context.Context, write bool, fn func(st *memState) error) error

// MemoryStore is an in-process Store. Transactions hold the store-wide write
// lock and work on a copy that replaces the live state only on success, so
// readers never see a partially applied cascade.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) access(ctx context.Context, write bool, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.state)
}

func (s *MemoryStore) Orders() OrderRepository         { return memOrders{s.access} }
func (s *MemoryStore) OrderLines() OrderLineRepository { return memOrderLines{s.access} }
func (s *MemoryStore) Users() UserRepository           { return memUsers{s.access} }
func (s *MemoryStore) Categories() CategoryRepository  { return memCategories{s.access} }
func (s *MemoryStore) Brands() BrandRepository         { return memBrands{s.access} }
func (s *MemoryStore) Products() ProductRepository     { return memProducts{s.access} }
func (s *MemoryStore) Reviews() ReviewRepository       { return memReviews{s.access} }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// memTx is the Store handed to a WithinTx callback. The enclosing
// MemoryStore already holds the write lock.
type memTx struct {
	state *memState
}

func (tx *memTx) access(ctx context.Context, _ bool, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(tx.state)
}

func (tx *memTx) Orders() OrderRepository         { return memOrders{tx.access} }
func (tx *memTx) OrderLines() OrderLineRepository { return memOrderLines{tx.access} }
func (tx *memTx) Users() UserRepository           { return memUsers{tx.access} }
func (tx *memTx) Categories() CategoryRepository  { return memCategories{tx.access} }
func (tx *memTx) Brands() BrandRepository         { return memBrands{tx.access} }
func (tx *memTx) Products() ProductRepository     { return memProducts{tx.access} }
func (tx *memTx) Reviews() ReviewRepository       { return memReviews{tx.access} }

func (tx *memTx) Ping(ctx context.Context) error { return ctx.Err() }

func (tx *memTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(tx)
}

type memOrders struct{ run access }

func (r memOrders) GetByID(ctx context.Context, id int64) (o *models.Order, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		o, err = st.orders.get(id)
		return err
	})
	return o, err
}

func (r memOrders) List(ctx context.Context) (out []*models.Order, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.orders.filter(nil)
		return nil
	})
	return out, err
}

func (r memOrders) ListByCustomer(ctx context.Context, customerID int64) (out []*models.Order, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.orders.filter(func(o *models.Order) bool { return o.CustomerID == customerID })
		return nil
	})
	return out, err
}

func (r memOrders) LatestByCustomer(ctx context.Context, customerID int64) (*models.Order, error) {
	orders, err := r.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("order for customer", customerID)
	}

	latest := orders[0]
	for _, o := range orders[1:] {
		if o.CreatedAt.After(latest.CreatedAt) || o.CreatedAt.Equal(latest.CreatedAt) {
			latest = o
		}
	}
	return latest, nil
}

func (r memOrders) SearchByID(ctx context.Context, text string) (out []*models.Order, err error) {
	needle := strings.ToLower(text)
	err = r.run(ctx, false, func(st *memState) error {
		out = st.orders.filter(func(o *models.Order) bool {
			return strings.Contains(strconv.FormatInt(o.ID, 10), needle)
		})
		return nil
	})
	return out, err
}

func (r memOrders) Create(ctx context.Context, order *models.Order) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.orders.insert(order.ID, *order)
		if err != nil {
			return err
		}
		order.ID = id
		stored := *order
		st.orders.rows[id] = stored
		return nil
	})
}

func (r memOrders) Update(ctx context.Context, order *models.Order) error {
	return r.run(ctx, true, func(st *memState) error {
		return st.orders.replace(order.ID, *order)
	})
}

func (r memOrders) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.run(ctx, true, func(st *memState) error {
		o, err := st.orders.get(id)
		if err != nil {
			return err
		}
		o.Status = status
		return st.orders.replace(id, *o)
	})
}

// Delete refuses to remove an order that still has lines, matching the
// foreign key on the relational schema.
func (r memOrders) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error {
		if _, err := st.orders.get(id); err != nil {
			return err
		}
		if hasLines(st, id) {
			return apperrors.NewConflictError("row is still referenced", apperrors.NotFound("order line for order", id))
		}
		return st.orders.remove(id)
	})
}

func (r memOrders) DeleteMany(ctx context.Context, ids []int64) (n int, err error) {
	err = r.run(ctx, true, func(st *memState) error {
		for _, id := range ids {
			if _, ok := st.orders.rows[id]; !ok {
				continue
			}
			if hasLines(st, id) {
				return apperrors.NewConflictError("row is still referenced", apperrors.NotFound("order line for order", id))
			}
		}
		for _, id := range ids {
			if st.orders.remove(id) == nil {
				n++
			}
		}
		return nil
	})
	return n, err
}

func hasLines(st *memState, orderID int64) bool {
	for _, l := range st.lines.rows {
		if l.OrderID == orderID {
			return true
		}
	}
	return false
}

type memOrderLines struct{ run access }

func (r memOrderLines) GetByID(ctx context.Context, id int64) (l *models.OrderLine, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		l, err = st.lines.get(id)
		return err
	})
	return l, err
}

func (r memOrderLines) List(ctx context.Context) (out []*models.OrderLine, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.lines.filter(nil)
		return nil
	})
	return out, err
}

func (r memOrderLines) ListByOrder(ctx context.Context, orderID int64) (out []*models.OrderLine, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.lines.filter(func(l *models.OrderLine) bool { return l.OrderID == orderID })
		return nil
	})
	return out, err
}

func (r memOrderLines) Create(ctx context.Context, line *models.OrderLine) error {
	return r.run(ctx, true, func(st *memState) error {
		if _, ok := st.orders.rows[line.OrderID]; !ok {
			return apperrors.NewConflictError("row is still referenced", apperrors.NotFound("order", line.OrderID))
		}
		id, err := st.lines.insert(line.ID, *line)
		if err != nil {
			return err
		}
		line.ID = id
		st.lines.rows[id] = *line
		return nil
	})
}

func (r memOrderLines) Update(ctx context.Context, line *models.OrderLine) error {
	return r.run(ctx, true, func(st *memState) error {
		return st.lines.replace(line.ID, *line)
	})
}

func (r memOrderLines) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error {
		return st.lines.remove(id)
	})
}

func (r memOrderLines) DeleteByOrders(ctx context.Context, orderIDs []int64) (n int, err error) {
	want := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	err = r.run(ctx, true, func(st *memState) error {
		for id, l := range st.lines.rows {
			if want[l.OrderID] {
				delete(st.lines.rows, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memUsers struct{ run access }

func (r memUsers) GetByID(ctx context.Context, id int64) (u *models.User, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		u, err = st.users.get(id)
		return err
	})
	return u, err
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var found []*models.User
	err := r.run(ctx, false, func(st *memState) error {
		found = st.users.filter(func(u *models.User) bool { return u.Username == username })
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NotFound("user", username)
	}
	return found[0], nil
}

func (r memUsers) ListByRole(ctx context.Context, roleID int) (out []*models.User, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.users.filter(func(u *models.User) bool { return u.RoleID == roleID })
		return nil
	})
	return out, err
}

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.users.insert(user.ID, *user)
		if err != nil {
			return err
		}
		user.ID = id
		st.users.rows[id] = *user
		return nil
	})
}

func (r memUsers) Update(ctx context.Context, user *models.User) error {
	return r.run(ctx, true, func(st *memState) error {
		existing, err := st.users.get(user.ID)
		if err != nil {
			return err
		}
		updated := *user
		updated.CreatedAt = existing.CreatedAt
		return st.users.replace(user.ID, updated)
	})
}

func (r memUsers) UpdatePassword(ctx context.Context, id int64, password string) error {
	return r.run(ctx, true, func(st *memState) error {
		u, err := st.users.get(id)
		if err != nil {
			return err
		}
		u.Password = password
		return st.users.replace(id, *u)
	})
}

func (r memUsers) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error {
		return st.users.remove(id)
	})
}

type memCategories struct{ run access }

func (r memCategories) GetByID(ctx context.Context, id int64) (c *models.Category, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		c, err = st.categories.get(id)
		return err
	})
	return c, err
}

func (r memCategories) List(ctx context.Context) (out []*models.Category, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.categories.filter(nil)
		return nil
	})
	return out, err
}

func (r memCategories) Create(ctx context.Context, c *models.Category) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.categories.insert(c.ID, *c)
		if err != nil {
			return err
		}
		c.ID = id
		st.categories.rows[id] = *c
		return nil
	})
}

func (r memCategories) Update(ctx context.Context, c *models.Category) error {
	return r.run(ctx, true, func(st *memState) error { return st.categories.replace(c.ID, *c) })
}

func (r memCategories) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error { return st.categories.remove(id) })
}

type memBrands struct{ run access }

func (r memBrands) GetByID(ctx context.Context, id int64) (b *models.Brand, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		b, err = st.brands.get(id)
		return err
	})
	return b, err
}

func (r memBrands) List(ctx context.Context) (out []*models.Brand, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.brands.filter(nil)
		return nil
	})
	return out, err
}

func (r memBrands) ListByCategory(ctx context.Context, categoryID int64) (out []*models.Brand, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.brands.filter(func(b *models.Brand) bool { return b.CategoryID == categoryID })
		return nil
	})
	return out, err
}

func (r memBrands) Create(ctx context.Context, b *models.Brand) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.brands.insert(b.ID, *b)
		if err != nil {
			return err
		}
		b.ID = id
		st.brands.rows[id] = *b
		return nil
	})
}

func (r memBrands) Update(ctx context.Context, b *models.Brand) error {
	return r.run(ctx, true, func(st *memState) error { return st.brands.replace(b.ID, *b) })
}

func (r memBrands) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error { return st.brands.remove(id) })
}

type memProducts struct{ run access }

func (r memProducts) GetByID(ctx context.Context, id int64) (p *models.Product, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		p, err = st.products.get(id)
		return err
	})
	return p, err
}

func (r memProducts) List(ctx context.Context, f ProductFilter) (out []*models.Product, err error) {
	ids := make(map[int64]bool, len(f.IDs))
	for _, id := range f.IDs {
		ids[id] = true
	}
	needle := strings.ToLower(f.NameLike)

	err = r.run(ctx, false, func(st *memState) error {
		out = st.products.filter(func(p *models.Product) bool {
			switch {
			case f.CategoryID != 0 && p.CategoryID != f.CategoryID:
				return false
			case f.BrandID != 0 && p.BrandID != f.BrandID:
				return false
			case len(ids) > 0 && !ids[p.ID]:
				return false
			case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
				return false
			case f.MaxPrice != nil && !p.Price.LessThan(*f.MaxPrice):
				return false
			case needle != "" && !strings.Contains(strings.ToLower(p.Name), needle):
				return false
			}
			return true
		})
		return nil
	})
	return out, err
}

func (r memProducts) Create(ctx context.Context, p *models.Product) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.products.insert(p.ID, *p)
		if err != nil {
			return err
		}
		p.ID = id
		st.products.rows[id] = *p
		return nil
	})
}

func (r memProducts) Update(ctx context.Context, p *models.Product) error {
	return r.run(ctx, true, func(st *memState) error { return st.products.replace(p.ID, *p) })
}

func (r memProducts) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error { return st.products.remove(id) })
}

type memReviews struct{ run access }

func (r memReviews) GetByID(ctx context.Context, id int64) (rv *models.Review, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		rv, err = st.reviews.get(id)
		return err
	})
	return rv, err
}

func (r memReviews) List(ctx context.Context) (out []*models.Review, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.reviews.filter(nil)
		return nil
	})
	return out, err
}

func (r memReviews) ListByProduct(ctx context.Context, productID int64) (out []*models.Review, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.reviews.filter(func(rv *models.Review) bool { return rv.ProductID == productID })
		return nil
	})
	return out, err
}

func (r memReviews) ListByUser(ctx context.Context, userID int64) (out []*models.Review, err error) {
	err = r.run(ctx, false, func(st *memState) error {
		out = st.reviews.filter(func(rv *models.Review) bool { return rv.UserID == userID })
		return nil
	})
	return out, err
}

func (r memReviews) Create(ctx context.Context, rv *models.Review) error {
	return r.run(ctx, true, func(st *memState) error {
		id, err := st.reviews.insert(rv.ID, *rv)
		if err != nil {
			return err
		}
		rv.ID = id
		st.reviews.rows[id] = *rv
		return nil
	})
}

func (r memReviews) Update(ctx context.Context, rv *models.Review) error {
	return r.run(ctx, true, func(st *memState) error {
		existing, err := st.reviews.get(rv.ID)
		if err != nil {
			return err
		}
		updated := *rv
		updated.CreatedAt = existing.CreatedAt
		return st.reviews.replace(rv.ID, updated)
	})
}

func (r memReviews) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, true, func(st *memState) error { return st.reviews.remove(id) })
}
