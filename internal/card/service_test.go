package card_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/card"
	cardPostgres "github.com/frahmantamala/opentna/internal/card/postgres"
	"github.com/frahmantamala/opentna/internal/storage/storagetest"
)

func TestCardService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Proximity Card Service Suite")
}

var _ = Describe("Proximity Card Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *card.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = storagetest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = card.NewService(cardPostgres.NewCardRepository(db), logger)
	})

	AfterEach(func() {
		storagetest.Close(db)
	})

	Describe("CreateProximityCard", func() {
		It("should assign consecutive identities", func() {
			first, err := service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0001", Enabled: true})
			Expect(err).NotTo(HaveOccurred())
			second, err := service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0002"})
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).To(Equal(int64(1)))
			Expect(second.ID).To(Equal(int64(2)))
			Expect(second.Enabled).To(BeFalse())
		})

		It("should reject an empty serial number", func() {
			_, err := service.CreateProximityCard(ctx, card.CreateCardDTO{})
			Expect(errors.Is(err, internal.ErrValidation)).To(BeTrue())
		})

		It("should reject a duplicate serial number", func() {
			_, err := service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0001"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0001"})
			Expect(errors.Is(err, internal.ErrDuplicateKey)).To(BeTrue())

			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.Details).To(Equal(internal.LookupKey{Entity: internal.EntityProximityCard, Field: "serial_no", Key: "A-0001"}))
		})
	})

	Describe("lookups", func() {
		BeforeEach(func() {
			_, err := service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0001", Enabled: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should find a card by identity and by serial number", func() {
			byID, err := service.LoadProximityCardByID(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.SerialNo).To(Equal("A-0001"))

			bySerial, err := service.LoadProximityCardBySerialNo(ctx, "A-0001")
			Expect(err).NotTo(HaveOccurred())
			Expect(bySerial.ID).To(Equal(byID.ID))
			Expect(bySerial.CreatedAt).To(BeTemporally("==", byID.CreatedAt))
		})

		It("should return a card specific not found error", func() {
			_, err := service.LoadProximityCardByID(ctx, 7)
			Expect(errors.Is(err, internal.ErrCardNotFound)).To(BeTrue())
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeFalse())

			_, err = service.LoadProximityCardBySerialNo(ctx, "missing")
			Expect(errors.Is(err, internal.ErrCardNotFound)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var note string

		BeforeEach(func() {
			note = "lobby reader"
			_, err := service.CreateProximityCard(ctx, card.CreateCardDTO{SerialNo: "A-0001", Description: &note, Enabled: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be a no-op for an identical snapshot", func() {
			same := note
			updated, changed, err := service.Update(ctx, card.UpdateCardDTO{ID: 1, SerialNo: "A-0001", Description: &same, Enabled: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeFalse())
			Expect(updated.LastModifiedAt).To(BeNil())
		})

		It("should keep the serial number and persist the rest", func() {
			_, changed, err := service.Update(ctx, card.UpdateCardDTO{ID: 1, SerialNo: "B-9999", Enabled: false})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())

			stored, err := service.LoadProximityCardByID(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.SerialNo).To(Equal("A-0001"))
			Expect(stored.Description).To(BeNil())
			Expect(stored.Enabled).To(BeFalse())
			Expect(stored.LastModifiedAt).NotTo(BeNil())
		})

		It("should reject a bad identity and an unknown card", func() {
			_, _, err := service.Update(ctx, card.UpdateCardDTO{ID: -1})
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())

			_, _, err = service.Update(ctx, card.UpdateCardDTO{ID: 5})
			Expect(errors.Is(err, internal.ErrCardNotFound)).To(BeTrue())
		})
	})
})
