package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/role"
	rolePostgres "github.com/frahmantamala/opentna/internal/role/postgres"
	"github.com/frahmantamala/opentna/internal/storage/storagetest"
	"github.com/frahmantamala/opentna/internal/transport"
	"github.com/frahmantamala/opentna/internal/user"
	userPostgres "github.com/frahmantamala/opentna/internal/user/postgres"
)

var _ = Describe("User Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeUser := func(w *httptest.ResponseRecorder) user.User {
		var u user.User
		Expect(json.NewDecoder(w.Body).Decode(&u)).To(Succeed())
		return u
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = storagetest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		roles := role.NewService(rolePostgres.NewRoleRepository(db), slogger)
		_, err = roles.CreateRole(context.Background(), role.CreateRoleDTO{Name: "employee", Enabled: true})
		Expect(err).NotTo(HaveOccurred())

		service := user.NewService(userPostgres.NewUserRepository(db), nil, slogger)
		handler := user.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Route("/users", func(ur chi.Router) {
			ur.Post("/", handler.CreateUser)
			ur.Get("/", handler.ListUsers)
			ur.Get("/{id}", handler.GetUser)
			ur.Patch("/{id}", handler.UpdateUser)
			ur.Get("/{id}/profile", handler.GetUserProfile)
			ur.Patch("/{id}/profile", handler.UpdateProfile)
			ur.Patch("/{id}/change/username", handler.ChangeUsername)
			ur.Patch("/{id}/change/password", handler.ChangePassword)
			ur.Put("/{id}/roles", handler.ReplaceRoles)
			ur.Put("/{id}/cards", handler.ReplaceProximityCards)
		})

		w := serve(http.MethodPost, "/users", `{"username":"alice","password":"`+b64("s3cret")+`","enabled":true,"role_ids":[1]}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	AfterEach(func() {
		storagetest.Close(db)
	})

	It("should never expose the password", func() {
		w := serve(http.MethodGet, "/users/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).NotTo(ContainSubstring("s3cret"))
		Expect(w.Body.String()).NotTo(ContainSubstring(`"password"`))
	})

	It("should resolve the profile route by username", func() {
		w := serve(http.MethodGet, "/users/alice/profile", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		u := decodeUser(w)
		Expect(u.ID).To(Equal(int64(1)))
		Expect(u.Roles).To(HaveLen(1))
	})

	It("should answer 404 for an unknown username", func() {
		w := serve(http.MethodGet, "/users/nobody/profile", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))

		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeUserNotFound)))
	})

	It("should answer 202 for a rename to the same name and 200 for a new one", func() {
		Expect(serve(http.MethodPatch, "/users/1/change/username", `{"username":"alice"}`).Code).To(Equal(http.StatusAccepted))

		w := serve(http.MethodPatch, "/users/1/change/username", `{"username":"alicia"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Username).To(Equal("alicia"))
	})

	It("should answer 409 when renaming onto another user", func() {
		Expect(serve(http.MethodPost, "/users", `{"username":"bob","password":"`+b64("pw")+`"}`).Code).To(Equal(http.StatusCreated))
		Expect(serve(http.MethodPatch, "/users/1/change/username", `{"username":"bob"}`).Code).To(Equal(http.StatusConflict))
	})

	It("should answer 400 for a wrong original password", func() {
		body := `{"original_password":"` + b64("nope") + `","current_password":"` + b64("next") + `"}`
		w := serve(http.MethodPatch, "/users/1/change/password", body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidCredential)))
	})

	It("should change the password with the right original", func() {
		body := `{"original_password":"` + b64("s3cret") + `","current_password":"` + b64("next") + `"}`
		Expect(serve(http.MethodPatch, "/users/1/change/password", body).Code).To(Equal(http.StatusOK))
	})

	It("should diff the profile flags", func() {
		Expect(serve(http.MethodPatch, "/users/1/profile", `{"must_change_password":false,"enabled":true}`).Code).To(Equal(http.StatusAccepted))

		w := serve(http.MethodPatch, "/users/1/profile", `{"must_change_password":true,"enabled":true}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).MustChangePassword).To(BeTrue())
	})

	It("should apply a partial update", func() {
		Expect(serve(http.MethodPatch, "/users/1", `{"enabled":true}`).Code).To(Equal(http.StatusAccepted))

		w := serve(http.MethodPatch, "/users/1", `{"enabled":false}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Enabled).To(BeFalse())
	})

	It("should replace roles from a JSON array", func() {
		w := serve(http.MethodPut, "/users/1/roles", `[]`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeUser(w).Roles).To(BeEmpty())

		Expect(serve(http.MethodPut, "/users/1/roles", `[5]`).Code).To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodPut, "/users/1/roles", `{"ids":[1]}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer 404 for cards that do not exist", func() {
		Expect(serve(http.MethodPut, "/users/1/cards", `[3]`).Code).To(Equal(http.StatusNotFound))
	})

	It("should list with paging headers", func() {
		w := serve(http.MethodGet, "/users?page=1&size=5", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Total-Count")).To(Equal("1"))
		Expect(serve(http.MethodGet, "/users?page=2&size=5", "").Code).To(Equal(http.StatusBadRequest))
	})
})
