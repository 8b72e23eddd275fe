package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginVerifyRoundTrip(t *testing.T) {
	s := NewService("hunter2", "test-secret")

	token, err := s.Login("hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned an empty token")
	}
	if err := s.Verify(token); err != nil {
		t.Errorf("Verify rejected a freshly issued token: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := NewService("hunter2", "test-secret")
	if _, err := s.Login("wrong"); err != ErrInvalidCredentials {
		t.Errorf("Login with wrong password returned %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabled(t *testing.T) {
	s := NewService("", "test-secret")
	if s.Enabled() {
		t.Error("service with no password reports enabled")
	}
	if _, err := s.Login(""); err != ErrInvalidCredentials {
		t.Errorf("Login on disabled service returned %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	s := NewService("hunter2", "test-secret")
	if err := s.Verify("not.a.token"); err == nil {
		t.Error("Verify accepted a malformed token")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a := NewService("hunter2", "secret-a")
	b := NewService("hunter2", "secret-b")

	token, err := a.Login("hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := b.Verify(token); err == nil {
		t.Error("Verify accepted a token signed with a different secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := NewService("hunter2", "test-secret")
	s.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	token, err := s.Login("hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := s.Verify(token); err == nil {
		t.Error("Verify accepted an expired token")
	}
}

func TestBcryptPasswordAccepted(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !isBcryptHash(hash) {
		t.Fatalf("HashPassword produced %q, not recognized as a bcrypt hash", hash)
	}

	s := NewService(hash, "test-secret")
	if _, err := s.Login("hunter2"); err != nil {
		t.Errorf("Login against bcrypt-hashed password failed: %v", err)
	}
	if _, err := s.Login("wrong"); err != ErrInvalidCredentials {
		t.Errorf("Login with wrong password against hash returned %v, want ErrInvalidCredentials", err)
	}
}

func TestRequireAuth(t *testing.T) {
	s := NewService("hunter2", "test-secret")
	handler := s.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		token, err := s.Login("hunter2")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("cookie token", func(t *testing.T) {
		token, err := s.Login("hunter2")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("open when disabled", func(t *testing.T) {
		open := NewService("", "test-secret").RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		rec := httptest.NewRecorder()
		open(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
