package card_test

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

	"github.com/frahmantamala/opentna/internal/card"
	cardPostgres "github.com/frahmantamala/opentna/internal/card/postgres"
	"github.com/frahmantamala/opentna/internal/storage/storagetest"
	"github.com/frahmantamala/opentna/internal/transport"
)

var _ = Describe("Proximity Card Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = storagetest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		service := card.NewService(cardPostgres.NewCardRepository(db), slogger)
		// 410 stands in for a deployment that hides missing records.
		base := transport.NewBaseHandler(slogger).WithNotFoundStatus(http.StatusGone)
		handler := card.NewHandler(base, service)

		router = chi.NewRouter()
		router.Post("/cards", handler.CreateCard)
		router.Get("/cards", handler.ListCards)
		router.Get("/cards/serial/{serialNo}", handler.GetCardBySerialNo)
		router.Get("/cards/{id}", handler.GetCard)
		router.Patch("/cards/{id}", handler.UpdateCard)

		_, err = service.CreateProximityCard(context.Background(), card.CreateCardDTO{SerialNo: "A-0001", Enabled: true})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		storagetest.Close(db)
	})

	It("should create a card", func() {
		w := serve(http.MethodPost, "/cards", `{"serial_no":"A-0002","enabled":true}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created card.ProximityCard
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.SerialNo).To(Equal("A-0002"))
	})

	It("should answer 409 for a taken serial number", func() {
		Expect(serve(http.MethodPost, "/cards", `{"serial_no":"A-0001"}`).Code).To(Equal(http.StatusConflict))
	})

	It("should fetch by serial number", func() {
		w := serve(http.MethodGet, "/cards/serial/A-0001", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should write the configured status for a missing card", func() {
		Expect(serve(http.MethodGet, "/cards/42", "").Code).To(Equal(http.StatusGone))
		Expect(serve(http.MethodGet, "/cards/serial/missing", "").Code).To(Equal(http.StatusGone))
	})

	It("should answer 202 for an unchanged card and 200 for a changed one", func() {
		Expect(serve(http.MethodPatch, "/cards/1", `{"enabled":true}`).Code).To(Equal(http.StatusAccepted))
		Expect(serve(http.MethodPatch, "/cards/1", `{"enabled":false}`).Code).To(Equal(http.StatusOK))
	})

	It("should list with default paging", func() {
		w := serve(http.MethodGet, "/cards", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Total-Count")).To(Equal("1"))

		var cards []card.ProximityCard
		Expect(json.NewDecoder(w.Body).Decode(&cards)).To(Succeed())
		Expect(cards).To(HaveLen(1))
	})
})
