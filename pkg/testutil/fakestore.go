// Package testutil provides an in-memory Task Store served over HTTP for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"rolltodo/pkg/api"
)

// Route names used for error injection and call counting.
const (
	RouteLogin    = "login"
	RouteRegister = "register"
	RouteList     = "list"
	RouteCreate   = "create"
	RouteDelete   = "delete"
	RouteToggle   = "toggle"
	RouteReorder  = "reorder"
	RouteMove     = "move"
	RouteFixOrder = "fix-order"
)

type storedTask struct {
	api.Task
	hasOrder bool
}

// FakeStore mimics the Task Store endpoints in memory.
type FakeStore struct {
	mu     sync.Mutex
	users  map[string]string
	tasks  []*storedTask
	nextID int
	calls  map[string]int
	fail   map[string]int

	lastReorder []string
}

// NewFakeStore creates an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		users: make(map[string]string),
		calls: make(map[string]int),
		fail:  make(map[string]int),
	}
}

// Start serves the store on a test server closed at the end of the test.
func (f *FakeStore) Start(t interface{ Cleanup(func()) }) *httptest.Server {
	srv := httptest.NewServer(f.Router())
	t.Cleanup(srv.Close)
	return srv
}

// AddUser registers credentials directly.
func (f *FakeStore) AddUser(rollNumber, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[rollNumber] = password
}

// AddTask seeds a task at the end of rollNumber's order and returns its id.
func (f *FakeStore) AddTask(rollNumber, text string, completed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.insertLocked(rollNumber, text, "", "")
	t.Completed = completed
	return t.ID
}

// AddLegacyTask seeds a task that has no explicit order.
func (f *FakeStore) AddLegacyTask(rollNumber, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.insertLocked(rollNumber, text, "", "")
	t.hasOrder = false
	t.Order = 0
	return t.ID
}

// FailWith makes route answer with status until cleared with status 0.
func (f *FakeStore) FailWith(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.fail, route)
		return
	}
	f.fail[route] = status
}

// Calls returns how many requests route has served.
func (f *FakeStore) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// LastReorder returns the ids of the most recent reorder request.
func (f *FakeStore) LastReorder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lastReorder...)
}

// Tasks returns rollNumber's tasks in store order.
func (f *FakeStore) Tasks(rollNumber string) []api.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listLocked(rollNumber)
}

// Router builds the gin engine serving the store.
func (f *FakeStore) Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.POST("/api/register", f.guard(RouteRegister, f.register))
	r.POST("/api/login", f.guard(RouteLogin, f.login))
	r.POST("/api/todo", f.guard(RouteCreate, f.create))
	r.GET("/api/todos/:roll", f.guard(RouteList, f.list))
	r.PUT("/api/todo/:id", f.guard(RouteToggle, f.toggle))
	r.DELETE("/api/todo/:id", f.guard(RouteDelete, f.remove))
	r.PUT("/api/reorder-todos", f.guard(RouteReorder, f.reorder))
	r.PUT("/api/move-task", f.guard(RouteMove, f.move))
	r.POST("/api/fix-task-order/:roll", f.guard(RouteFixOrder, f.fixOrder))

	return r
}

func (f *FakeStore) guard(route string, h func(*gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		f.calls[route]++
		status := f.fail[route]
		f.mu.Unlock()

		if status != 0 {
			c.JSON(status, gin.H{"error": fmt.Sprintf("injected %s failure", route)})
			return
		}
		h(c)
	}
}

type credentialsBody struct {
	RollNumber string `json:"roll_number"`
	Password   string `json:"password"`
}

func (f *FakeStore) register(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[body.RollNumber]; ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}
	f.users[body.RollNumber] = body.Password
	c.JSON(http.StatusOK, gin.H{"msg": "Registration successful"})
}

func (f *FakeStore) login(c *gin.Context) {
	var body credentialsBody
	_ = c.ShouldBindJSON(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[body.RollNumber]; ok && pw == body.Password {
		c.JSON(http.StatusOK, gin.H{"msg": api.LoginSuccessMessage})
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
}

func (f *FakeStore) create(c *gin.Context) {
	var body struct {
		Task       string `json:"task"`
		RollNumber string `json:"roll_number"`
		Date       string `json:"date"`
		Time       string `json:"time"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Task == "" || body.RollNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing task or roll_number"})
		return
	}
	f.mu.Lock()
	t := f.insertLocked(body.RollNumber, body.Task, body.Date, body.Time)
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"msg": "Task added", "id": t.ID})
}

func (f *FakeStore) list(c *gin.Context) {
	f.mu.Lock()
	tasks := f.listLocked(c.Param("roll"))
	f.mu.Unlock()
	c.JSON(http.StatusOK, tasks)
}

func (f *FakeStore) toggle(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.findLocked(c.Param("id"))
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	t.Completed = !t.Completed
	c.JSON(http.StatusOK, gin.H{"msg": "Task status updated"})
}

func (f *FakeStore) remove(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := c.Param("id")
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"msg": "Task deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
}

func (f *FakeStore) reorder(c *gin.Context) {
	var body struct {
		RollNumber string   `json:"roll_number"`
		TaskIDs    []string `json:"taskIds"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.RollNumber == "" || len(body.TaskIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing roll_number or taskIds"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReorder = append([]string(nil), body.TaskIDs...)
	for i, id := range body.TaskIDs {
		if t := f.findLocked(id); t != nil && t.RollNumber == body.RollNumber {
			t.Order = i
			t.hasOrder = true
		}
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Tasks reordered successfully"})
}

func (f *FakeStore) move(c *gin.Context) {
	var body struct {
		TaskID     string `json:"taskId"`
		RollNumber string `json:"roll_number"`
		Direction  string `json:"direction"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.TaskID == "" || body.RollNumber == "" || body.Direction == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ordered := f.orderedLocked(body.RollNumber)
	current := -1
	for i, t := range ordered {
		if t.ID == body.TaskID {
			current = i
			break
		}
	}
	if current < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	target := -1
	switch {
	case body.Direction == "up" && current > 0:
		target = current - 1
	case body.Direction == "down" && current < len(ordered)-1:
		target = current + 1
	}
	if target < 0 {
		c.JSON(http.StatusOK, gin.H{"msg": "No movement needed"})
		return
	}

	// Positions are rewritten so legacy zero orders cannot tie.
	ordered[current], ordered[target] = ordered[target], ordered[current]
	for i, t := range ordered {
		t.Order = i
		t.hasOrder = true
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Task moved successfully"})
}

func (f *FakeStore) fixOrder(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	roll := c.Param("roll")
	fixed := 0
	for _, t := range f.tasks {
		if t.RollNumber == roll && !t.hasOrder {
			t.Order = fixed
			t.hasOrder = true
			fixed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"msg": fmt.Sprintf("Fixed order for %d tasks", fixed)})
}

func (f *FakeStore) insertLocked(roll, text, date, clock string) *storedTask {
	next := 0
	for _, t := range f.tasks {
		if t.RollNumber == roll && t.Order+1 > next {
			next = t.Order + 1
		}
	}
	f.nextID++
	t := &storedTask{
		Task: api.Task{
			ID:         fmt.Sprintf("%024x", f.nextID),
			Text:       text,
			RollNumber: roll,
			Date:       date,
			Time:       clock,
			Order:      next,
		},
		hasOrder: true,
	}
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeStore) findLocked(id string) *storedTask {
	for _, t := range f.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (f *FakeStore) orderedLocked(roll string) []*storedTask {
	var out []*storedTask
	for _, t := range f.tasks {
		if t.RollNumber == roll {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (f *FakeStore) listLocked(roll string) []api.Task {
	ordered := f.orderedLocked(roll)
	out := make([]api.Task, 0, len(ordered))
	for _, t := range ordered {
		out = append(out, t.Task)
	}
	return out
}
