package role_test

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
)

var _ = Describe("Role Handler Integration", func() {
	var (
		db      *gorm.DB
		service *role.Service
		router  *chi.Mux
		slogger *slog.Logger
	)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = storagetest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		service = role.NewService(rolePostgres.NewRoleRepository(db), slogger)
		handler := role.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles", handler.ListRoles)
		router.Get("/roles/name/{name}", handler.GetRoleByName)
		router.Get("/roles/{id}", handler.GetRole)
		router.Patch("/roles/{id}", handler.UpdateRole)

		for _, name := range []string{"administrator", "supervisor", "employee"} {
			_, err := service.CreateRole(context.Background(), role.CreateRoleDTO{Name: name, Enabled: true})
			Expect(err).NotTo(HaveOccurred())
		}
	})

	AfterEach(func() {
		storagetest.Close(db)
	})

	It("should create a role and answer 201", func() {
		w := serve(http.MethodPost, "/roles", `{"name":"auditor","description":"reads reports","enabled":true}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created role.Role
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).To(Equal(int64(4)))
		Expect(*created.Description).To(Equal("reads reports"))
	})

	It("should answer 409 for a duplicate name", func() {
		w := serve(http.MethodPost, "/roles", `{"name":"supervisor"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))

		var resp struct {
			Error struct {
				Type string `json:"type"`
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal(string(internal.ErrCodeDuplicateKey)))
	})

	It("should answer 400 for a malformed body", func() {
		w := serve(http.MethodPost, "/roles", `{"name":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should page the roles and expose the totals", func() {
		w := serve(http.MethodGet, "/roles?page=2&size=2", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Total-Count")).To(Equal("3"))
		Expect(w.Header().Get("X-Total-Pages")).To(Equal("2"))

		var roles []role.Role
		Expect(json.NewDecoder(w.Body).Decode(&roles)).To(Succeed())
		Expect(roles).To(HaveLen(1))
		Expect(roles[0].Name).To(Equal("employee"))
	})

	It("should answer 400 with an empty object past the last page", func() {
		w := serve(http.MethodGet, "/roles?page=3&size=2", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("{}"))
	})

	It("should fetch by identity and by name", func() {
		w := serve(http.MethodGet, "/roles/2", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = serve(http.MethodGet, "/roles/name/employee", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var found role.Role
		Expect(json.NewDecoder(w.Body).Decode(&found)).To(Succeed())
		Expect(found.ID).To(Equal(int64(3)))
	})

	It("should answer 404 for an unknown role and 400 for a bad identity", func() {
		Expect(serve(http.MethodGet, "/roles/99", "").Code).To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodGet, "/roles/name/nobody", "").Code).To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodGet, "/roles/0", "").Code).To(Equal(http.StatusBadRequest))
		Expect(serve(http.MethodGet, "/roles/abc", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer 202 with an empty object when an update changes nothing", func() {
		w := serve(http.MethodPatch, "/roles/1", `{"enabled":true}`)
		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("{}"))
	})

	It("should persist a real update", func() {
		w := serve(http.MethodPatch, "/roles/1", `{"name":"ignored","description":"all access","enabled":false}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		stored, err := service.LoadRoleByID(context.Background(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Name).To(Equal("administrator"))
		Expect(stored.Enabled).To(BeFalse())
		Expect(*stored.Description).To(Equal("all access"))
		Expect(stored.LastModifiedAt).NotTo(BeNil())
	})
})
