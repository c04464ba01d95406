package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rolltodo/pkg/api"
	"rolltodo/pkg/testutil"
)

func newClient(t *testing.T, store *testutil.FakeStore) *api.Client {
	t.Helper()
	srv := store.Start(t)
	c, err := api.New(api.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := api.New(api.Options{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for invalid base url")
	}
}

func TestNew_DefaultURL(t *testing.T) {
	c, err := api.New(api.Options{})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	if c.BaseURL() != api.DefaultBaseURL {
		t.Errorf("expected default base url, got %q", c.BaseURL())
	}
}

func TestLogin(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser("21CS001", "pw")
	c := newClient(t, store)
	ctx := context.Background()

	res, err := c.Login(ctx, "21CS001", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.Success || res.Message != "Login successful" {
		t.Errorf("unexpected result %+v", res)
	}

	res, err = c.Login(ctx, "21CS001", "wrong")
	if err != nil {
		t.Fatalf("rejected login should not be an error: %v", err)
	}
	if res.Success || res.Message != "Invalid credentials" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestLogin_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := api.New(api.Options{BaseURL: url})
	if _, err := c.Login(context.Background(), "a", "b"); err == nil {
		t.Error("expected transport error")
	}
}

func TestRegister(t *testing.T) {
	store := testutil.NewFakeStore()
	c := newClient(t, store)
	ctx := context.Background()

	res, err := c.Register(ctx, "21CS001", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !res.OK() || res.Message != "Registration successful" {
		t.Errorf("unexpected result %+v", res)
	}

	res, err = c.Register(ctx, "21CS001", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.OK() || res.Error != "User already exists" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCreateThenList(t *testing.T) {
	store := testutil.NewFakeStore()
	c := newClient(t, store)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, "21CS001", "Buy milk", "2026-10-18", "09:30")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == "" || created.Text != "Buy milk" {
		t.Errorf("unexpected created task %+v", created)
	}
	if _, err := c.CreateTask(ctx, "21CS001", "Walk dog", "", ""); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := c.ListTasks(ctx, "21CS001")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != created.ID || tasks[0].Date != "2026-10-18" || tasks[0].Time != "09:30" {
		t.Errorf("unexpected first task %+v", tasks[0])
	}
	if tasks[1].Text != "Walk dog" || tasks[1].Date != "" || tasks[1].Completed {
		t.Errorf("unexpected second task %+v", tasks[1])
	}

	other, err := c.ListTasks(ctx, "21CS002")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if other == nil || len(other) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", other)
	}
}

func TestToggleAndDelete(t *testing.T) {
	store := testutil.NewFakeStore()
	id := store.AddTask("21CS001", "Buy milk", false)
	c := newClient(t, store)
	ctx := context.Background()

	if err := c.ToggleTask(ctx, id); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !store.Tasks("21CS001")[0].Completed {
		t.Error("expected task completed after toggle")
	}

	if err := c.DeleteTask(ctx, id); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	err := c.DeleteTask(ctx, id)
	if !api.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Task not found" {
		t.Errorf("expected store message in error, got %v", err)
	}
}

func TestReorderAndMove(t *testing.T) {
	store := testutil.NewFakeStore()
	a := store.AddTask("21CS001", "a", false)
	b := store.AddTask("21CS001", "b", false)
	cc := store.AddTask("21CS001", "c", false)
	c := newClient(t, store)
	ctx := context.Background()

	if err := c.ReorderTasks(ctx, "21CS001", []string{cc, a, b}); err != nil {
		t.Fatalf("ReorderTasks: %v", err)
	}
	assertOrder(t, store.Tasks("21CS001"), cc, a, b)

	if err := c.MoveTask(ctx, "21CS001", b, api.Up); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	assertOrder(t, store.Tasks("21CS001"), cc, b, a)

	if err := c.ReorderTasks(ctx, "21CS001", nil); err == nil {
		t.Error("expected error for empty reorder")
	}
}

func TestNormalizeOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddLegacyTask("21CS001", "old")
	c := newClient(t, store)

	if err := c.NormalizeOrder(context.Background(), "21CS001"); err != nil {
		t.Fatalf("NormalizeOrder: %v", err)
	}
	if store.Calls(testutil.RouteFixOrder) != 1 {
		t.Errorf("expected one fix-order call, got %d", store.Calls(testutil.RouteFixOrder))
	}
}

func TestRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, _ := api.New(api.Options{BaseURL: srv.URL, RequestsPerSecond: 100})
	if _, err := c.ListTasks(context.Background(), "x"); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 36 {
		t.Errorf("expected uuid request id, got %q", got)
	}
}

func TestDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>sleeping</html>"))
	}))
	defer srv.Close()

	c, _ := api.New(api.Options{BaseURL: srv.URL})
	if _, err := c.ListTasks(context.Background(), "x"); err == nil {
		t.Error("expected decode error")
	}
}

func assertOrder(t *testing.T, tasks []api.Task, ids ...string) {
	t.Helper()
	if len(tasks) != len(ids) {
		t.Fatalf("expected %d tasks, got %d", len(ids), len(tasks))
	}
	for i, id := range ids {
		if tasks[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, tasks[i].ID)
		}
	}
}
