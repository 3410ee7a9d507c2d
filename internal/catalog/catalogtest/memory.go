// Package catalogtest provides an in-memory catalog.Session for tests.
//
// Transactions work on a copy of the committed state, so rollback discards
// exactly what an open PostgreSQL transaction would. Ids come from a sequence
// that, like a PostgreSQL sequence, is not rolled back.
package catalogtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrTxClosed is returned when a finished transaction is used.
var ErrTxClosed = errors.New("tx is closed")

type entity struct {
	id      int64
	name    string
	profile pgtype.Text
}

type pair struct {
	show   int64
	entity int64
}

type state struct {
	shows    map[int64]catalog.ShowParams
	entities map[catalog.Kind][]entity
	links    map[catalog.Kind]map[pair]pgtype.Text
}

func newState() *state {
	s := &state{
		shows:    make(map[int64]catalog.ShowParams),
		entities: make(map[catalog.Kind][]entity),
		links:    make(map[catalog.Kind]map[pair]pgtype.Text),
	}
	for _, k := range catalog.Kinds() {
		s.links[k] = make(map[pair]pgtype.Text)
	}
	return s
}

func (s *state) clone() *state {
	c := newState()
	for id, sh := range s.shows {
		c.shows[id] = sh
	}
	for k, list := range s.entities {
		c.entities[k] = append([]entity(nil), list...)
	}
	for k, m := range s.links {
		for p, v := range m {
			c.links[k][p] = v
		}
	}
	return c
}

func (s *state) find(kind catalog.Kind, name string) (int, bool) {
	for i, e := range s.entities[kind] {
		if e.name == name {
			return i, true
		}
	}
	return 0, false
}

// Memory is an in-memory catalog.Session.
type Memory struct {
	mu        sync.Mutex
	committed *state
	seq       int64
	calls     map[string]int

	// FailInsertShow makes InsertShow return the mapped error for a show id.
	FailInsertShow map[int64]error
	// FailInsertEntity makes InsertEntity return the mapped error for a name.
	FailInsertEntity map[string]error
	// FailCommits fails the next n top-level commits. A failed commit
	// discards the transaction.
	FailCommits int
	// FailBegin, when set, is returned by every top-level Begin.
	FailBegin error
}

// NewMemory returns an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		committed:        newState(),
		calls:            make(map[string]int),
		FailInsertShow:   make(map[int64]error),
		FailInsertEntity: make(map[string]error),
	}
}

// Begin starts a transaction over a snapshot of the committed state.
func (m *Memory) Begin(ctx context.Context) (catalog.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls["Begin"]++
	if m.FailBegin != nil {
		return nil, m.FailBegin
	}
	return &Tx{m: m, st: m.committed.clone()}, nil
}

// Counts reports committed row counts in catalog.Tables() order.
func (m *Memory) Counts(ctx context.Context) (catalog.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTable := map[string]int64{"tv_shows": int64(len(m.committed.shows))}
	for _, k := range catalog.Kinds() {
		info := k.Info()
		byTable[info.Table] = int64(len(m.committed.entities[k]))
		byTable[info.JoinTable] = int64(len(m.committed.links[k]))
	}

	var counts catalog.Counts
	for _, table := range catalog.Tables() {
		counts = append(counts, catalog.TableCount{Table: table, Rows: byTable[table]})
	}
	return counts, nil
}

// Calls returns how many times method has been called on any transaction.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// ShowIDs returns the committed show ids in ascending order.
func (m *Memory) ShowIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.committed.shows))
	for id := range m.committed.shows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Show returns a committed show.
func (m *Memory) Show(id int64) (catalog.ShowParams, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.committed.shows[id]
	return sh, ok
}

// Names returns committed entity names of kind in insertion order.
func (m *Memory) Names(kind catalog.Kind) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, e := range m.committed.entities[kind] {
		names = append(names, e.name)
	}
	return names
}

// Profile returns the stored profile URL of a committed entity.
func (m *Memory) Profile(kind catalog.Kind, name string) (pgtype.Text, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.committed.find(kind, name)
	if !ok {
		return pgtype.Text{}, false
	}
	return m.committed.entities[kind][i].profile, true
}

// Linked returns the names of kind linked to showID, sorted.
func (m *Memory) Linked(kind catalog.Kind, showID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for p := range m.committed.links[kind] {
		if p.show != showID {
			continue
		}
		for _, e := range m.committed.entities[kind] {
			if e.id == p.entity {
				names = append(names, e.name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Character returns the character an actor plays on a show.
func (m *Memory) Character(showID int64, actor string) (pgtype.Text, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.committed.find(catalog.Actor, actor)
	if !ok {
		return pgtype.Text{}, false
	}
	ch, ok := m.committed.links[catalog.Actor][pair{show: showID, entity: m.committed.entities[catalog.Actor][i].id}]
	return ch, ok
}

// Orphans counts committed links whose show or entity row is missing.
func (m *Memory) Orphans() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, links := range m.committed.links {
		for p := range links {
			_, showOK := m.committed.shows[p.show]
			entityOK := false
			for _, e := range m.committed.entities[k] {
				if e.id == p.entity {
					entityOK = true
					break
				}
			}
			if !showOK || !entityOK {
				n++
			}
		}
	}
	return n
}

// Tx is a transaction or, when parent is set, a savepoint.
type Tx struct {
	m      *Memory
	parent *Tx
	st     *state
	done   bool
}

func (t *Tx) enter(method string) error {
	t.m.mu.Lock()
	t.m.calls[method]++
	if t.done {
		t.m.mu.Unlock()
		return ErrTxClosed
	}
	return nil
}

func (t *Tx) exit() { t.m.mu.Unlock() }

func (t *Tx) ShowExists(ctx context.Context, id int64) (bool, error) {
	if err := t.enter("ShowExists"); err != nil {
		return false, err
	}
	defer t.exit()
	_, ok := t.st.shows[id]
	return ok, nil
}

func (t *Tx) InsertShow(ctx context.Context, arg catalog.ShowParams) error {
	if err := t.enter("InsertShow"); err != nil {
		return err
	}
	defer t.exit()

	if err := t.m.FailInsertShow[arg.ID]; err != nil {
		return fmt.Errorf("insert show %d: %w", arg.ID, err)
	}
	if _, dup := t.st.shows[arg.ID]; dup {
		return fmt.Errorf("insert show %d: duplicate key value violates unique constraint \"tv_shows_pkey\"", arg.ID)
	}
	t.st.shows[arg.ID] = arg
	return nil
}

func (t *Tx) FindEntity(ctx context.Context, kind catalog.Kind, name string) (int64, bool, error) {
	if err := t.enter("FindEntity"); err != nil {
		return 0, false, err
	}
	defer t.exit()

	i, ok := t.st.find(kind, name)
	if !ok {
		return 0, false, nil
	}
	return t.st.entities[kind][i].id, true, nil
}

func (t *Tx) InsertEntity(ctx context.Context, kind catalog.Kind, name string, profileURL pgtype.Text) (int64, error) {
	if err := t.enter("InsertEntity"); err != nil {
		return 0, err
	}
	defer t.exit()

	if err := t.m.FailInsertEntity[name]; err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", kind, name, err)
	}
	if !kind.Info().HasProfile {
		profileURL = pgtype.Text{}
	}
	t.m.seq++
	t.st.entities[kind] = append(t.st.entities[kind], entity{id: t.m.seq, name: name, profile: profileURL})
	return t.m.seq, nil
}

func (t *Tx) UpdateProfileURL(ctx context.Context, kind catalog.Kind, id int64, profileURL pgtype.Text) error {
	if err := t.enter("UpdateProfileURL"); err != nil {
		return err
	}
	defer t.exit()

	for i, e := range t.st.entities[kind] {
		if e.id == id {
			t.st.entities[kind][i].profile = profileURL
			return nil
		}
	}
	return nil
}

func (t *Tx) LinkEntity(ctx context.Context, kind catalog.Kind, showID, entityID int64) error {
	if err := t.enter("LinkEntity"); err != nil {
		return err
	}
	defer t.exit()
	return t.link(kind, showID, entityID, pgtype.Text{})
}

func (t *Tx) LinkCast(ctx context.Context, showID, actorID int64, character pgtype.Text) error {
	if err := t.enter("LinkCast"); err != nil {
		return err
	}
	defer t.exit()
	return t.link(catalog.Actor, showID, actorID, character)
}

func (t *Tx) link(kind catalog.Kind, showID, entityID int64, extra pgtype.Text) error {
	if _, ok := t.st.shows[showID]; !ok {
		return fmt.Errorf("link show %d: violates foreign key constraint on %s", showID, kind.Info().JoinTable)
	}
	p := pair{show: showID, entity: entityID}
	if _, exists := t.st.links[kind][p]; exists {
		return nil
	}
	t.st.links[kind][p] = extra
	return nil
}

// Begin opens a savepoint.
func (t *Tx) Begin(ctx context.Context) (catalog.Tx, error) {
	if err := t.enter("Savepoint"); err != nil {
		return nil, err
	}
	defer t.exit()
	return &Tx{m: t.m, parent: t, st: t.st.clone()}, nil
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.enter("Commit"); err != nil {
		return err
	}
	defer t.exit()

	t.done = true
	if t.parent != nil {
		t.parent.st = t.st
		return nil
	}
	if t.m.FailCommits > 0 {
		t.m.FailCommits--
		return errors.New("commit: connection reset by peer")
	}
	t.m.committed = t.st
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.enter("Rollback"); err != nil {
		return err
	}
	defer t.exit()
	t.done = true
	return nil
}

var (
	_ catalog.Session = (*Memory)(nil)
	_ catalog.Tx      = (*Tx)(nil)
)
