package ordering

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

// memStore makes every statement atomic but, like a real database without
// extra locking, does not isolate transactions from each other. Engine locks
// are what keeps concurrent compound updates consistent.
type memStore struct {
	mu     sync.Mutex
	boards map[uuid.UUID]*model.Board
	tasks  map[uuid.UUID]*model.Task

	failOn   string
	taskHook func(t *model.Task)
}

func newMemStore() *memStore {
	return &memStore{boards: map[uuid.UUID]*model.Board{}, tasks: map[uuid.UUID]*model.Task{}}
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	return &c
}

func copyBoard(b *model.Board) *model.Board {
	c := *b
	c.Lists = append([]model.List(nil), b.Lists...)
	c.Members = append([]model.Membership(nil), b.Members...)
	return &c
}

func (s *memStore) Task(_ context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task")
	}
	c := copyTask(t)
	if s.taskHook != nil {
		s.taskHook(c)
	}
	return c, nil
}

func (s *memStore) InTx(_ context.Context, _ []uuid.UUID, fn func(tx Tx) error) error {
	tx := &memTx{s: s, tasks: map[uuid.UUID]*model.Task{}, boards: map[uuid.UUID]*model.Board{}}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// addBoard creates a board with the given members and n lists.
func (s *memStore) addBoard(members []model.Membership, n int) *model.Board {
	b := &model.Board{ID: uuid.New(), Name: "board", Members: members}
	for i := 0; i < n; i++ {
		b.Lists = append(b.Lists, model.List{ID: uuid.New(), BoardID: b.ID, Name: "list", Position: i})
	}
	s.mu.Lock()
	s.boards[b.ID] = b
	s.mu.Unlock()
	return copyBoard(b)
}

// titles returns the task titles of a list ordered by position.
func (s *memStore) titles(listID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ts []*model.Task
	for _, t := range s.tasks {
		if t.ListID == listID {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Position < ts[j].Position })
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func (s *memStore) positions(listID uuid.UUID) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ps []int
	for _, t := range s.tasks {
		if t.ListID == listID {
			ps = append(ps, t.Position)
		}
	}
	sort.Ints(ps)
	return ps
}

func (s *memStore) listOrder(boardID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boards[boardID].ListIDs()
}

type memTx struct {
	s *memStore
	// original state of everything touched; nil task means created in this tx
	tasks  map[uuid.UUID]*model.Task
	boards map[uuid.UUID]*model.Board
}

var errInjected = errors.New("injected storage failure")

func (tx *memTx) fail(op string) error {
	if tx.s.failOn == op {
		return errInjected
	}
	return nil
}

func (tx *memTx) touchTask(id uuid.UUID) {
	if _, ok := tx.tasks[id]; ok {
		return
	}
	if t, ok := tx.s.tasks[id]; ok {
		tx.tasks[id] = copyTask(t)
	} else {
		tx.tasks[id] = nil
	}
}

func (tx *memTx) touchBoard(id uuid.UUID) {
	if _, ok := tx.boards[id]; !ok {
		tx.boards[id] = copyBoard(tx.s.boards[id])
	}
}

func (tx *memTx) rollback() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, t := range tx.tasks {
		if t == nil {
			delete(tx.s.tasks, id)
		} else {
			tx.s.tasks[id] = t
		}
	}
	for id, b := range tx.boards {
		tx.s.boards[id] = b
	}
}

func (tx *memTx) Task(id uuid.UUID) (*model.Task, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	t, ok := tx.s.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task")
	}
	return copyTask(t), nil
}

func (tx *memTx) Board(id uuid.UUID) (*model.Board, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	b, ok := tx.s.boards[id]
	if !ok {
		return nil, apperr.NotFound("board")
	}
	return copyBoard(b), nil
}

func (tx *memTx) MaxPosition(listID uuid.UUID) (int, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	max := -1
	for _, t := range tx.s.tasks {
		if t.ListID == listID && t.Position > max {
			max = t.Position
		}
	}
	return max, nil
}

func (tx *memTx) CountTasks(listID uuid.UUID) (int, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	n := 0
	for _, t := range tx.s.tasks {
		if t.ListID == listID {
			n++
		}
	}
	return n, nil
}

func (tx *memTx) ShiftPositions(listID uuid.UUID, from, to, delta int) error {
	if err := tx.fail("ShiftPositions"); err != nil {
		return err
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, t := range tx.s.tasks {
		if t.ListID == listID && t.Position >= from && (to < 0 || t.Position <= to) {
			tx.touchTask(id)
			t.Position += delta
		}
	}
	return nil
}

func (tx *memTx) CreateTask(t *model.Task) error {
	if err := tx.fail("CreateTask"); err != nil {
		return err
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchTask(t.ID)
	tx.s.tasks[t.ID] = copyTask(t)
	return nil
}

func (tx *memTx) SaveTask(t *model.Task) error {
	if err := tx.fail("SaveTask"); err != nil {
		return err
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchTask(t.ID)
	tx.s.tasks[t.ID] = copyTask(t)
	return nil
}

func (tx *memTx) DeleteTask(id uuid.UUID) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchTask(id)
	delete(tx.s.tasks, id)
	return nil
}

func (tx *memTx) CreateList(l *model.List) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchBoard(l.BoardID)
	b := tx.s.boards[l.BoardID]
	b.Lists = append(b.Lists, *l)
	return nil
}

func (tx *memTx) DeleteList(l *model.List) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchBoard(l.BoardID)
	for id, t := range tx.s.tasks {
		if t.ListID == l.ID {
			tx.touchTask(id)
			delete(tx.s.tasks, id)
		}
	}
	b := tx.s.boards[l.BoardID]
	kept := b.Lists[:0:0]
	for _, x := range b.Lists {
		if x.ID != l.ID {
			x.Position = len(kept)
			kept = append(kept, x)
		}
	}
	b.Lists = kept
	return nil
}

func (tx *memTx) SetListOrder(boardID uuid.UUID, ids []uuid.UUID) error {
	if err := tx.fail("SetListOrder"); err != nil {
		return err
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.touchBoard(boardID)
	b := tx.s.boards[boardID]
	byID := map[uuid.UUID]model.List{}
	for _, l := range b.Lists {
		byID[l.ID] = l
	}
	lists := make([]model.List, len(ids))
	for i, id := range ids {
		l := byID[id]
		l.Position = i
		lists[i] = l
	}
	b.Lists = lists
	return nil
}

type recordingPublisher struct {
	mu  sync.Mutex
	evs []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	p.evs = append(p.evs, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.evs))
	for i, ev := range p.evs {
		out[i] = ev.Kind
	}
	return out
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store *memStore
	pub   *recordingPublisher
	eng   *Engine
	board *model.Board
	actor Actor
	other uuid.UUID
}

func newFixture(t *testing.T, lists int) *fixture {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	actor := Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	other := uuid.New()
	board := store.addBoard([]model.Membership{
		{UserID: actor.UserID, Role: model.RoleAdmin},
		{UserID: other, Role: model.RoleMember},
	}, lists)
	return &fixture{
		store: store,
		pub:   pub,
		eng:   NewEngine(store, NewLocks(), pub, quietLogger()),
		board: board,
		actor: actor,
		other: other,
	}
}

func (f *fixture) list(i int) uuid.UUID {
	return f.board.Lists[i].ID
}

// seed appends tasks with the given titles to list i.
func (f *fixture) seed(t *testing.T, i int, titles ...string) []*model.Task {
	t.Helper()
	out := make([]*model.Task, len(titles))
	for j, title := range titles {
		task, err := f.eng.CreateTask(context.Background(), f.actor, f.board.ID, f.list(i), TaskAttrs{Title: title})
		if err != nil {
			t.Fatalf("seed %s: %v", title, err)
		}
		out[j] = task
	}
	return out
}

func dense(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
