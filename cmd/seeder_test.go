package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/core/datamodel/role"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/internal/storage/storagetest"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("seed", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		services *Services
		lg       *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		lg = slog.New(slog.NewTextHandler(io.Discard, nil))

		var err error
		db, err = storagetest.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		cfg := &internal.Config{Security: internal.SecurityConfig{PasswordEncoder: "plain"}}
		services, err = buildServices(cfg, db, sqlx.NewDb(sqlDB, storage.SQLDriverName(db)), lg)
		Expect(err).NotTo(HaveOccurred())

		seedAdminUsername = "admin"
		seedAdminPassword = "admin"
		seedResetAdmin = false
	})

	AfterEach(func() {
		storagetest.Close(db)
	})

	It("should create the default roles and an administrator", func() {
		Expect(seed(ctx, services, lg)).To(Succeed())

		for _, r := range defaultRoles {
			_, err := services.Roles.LoadRoleByName(ctx, r.Name)
			Expect(err).NotTo(HaveOccurred())
		}

		admin, err := services.Users.LoadUserByUsername(ctx, "admin")
		Expect(err).NotTo(HaveOccurred())
		Expect(admin.MustChangePassword).To(BeTrue())
		Expect(admin.Enabled).To(BeTrue())
		Expect(admin.Roles).To(HaveLen(1))
		Expect(admin.Roles[0].Name).To(Equal("administrator"))
		Expect(admin.Password).To(Equal("admin"))
	})

	It("should be idempotent", func() {
		Expect(seed(ctx, services, lg)).To(Succeed())
		Expect(seed(ctx, services, lg)).To(Succeed())

		var count int64
		Expect(db.Model(&role.Role{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(len(defaultRoles))))
	})

	It("should reset an existing administrator when asked", func() {
		Expect(seed(ctx, services, lg)).To(Succeed())
		admin, err := services.Users.LoadUserByUsername(ctx, "admin")
		Expect(err).NotTo(HaveOccurred())
		_, err = services.Users.UpdateEnabled(ctx, admin.ID, false)
		Expect(err).NotTo(HaveOccurred())
		_, err = services.Users.UpdateMustChangePassword(ctx, admin.ID, false)
		Expect(err).NotTo(HaveOccurred())

		seedResetAdmin = true
		seedAdminPassword = "n3w"
		Expect(seed(ctx, services, lg)).To(Succeed())

		reset, err := services.Users.LoadUserByID(ctx, admin.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(reset.Enabled).To(BeTrue())
		Expect(reset.MustChangePassword).To(BeTrue())
		Expect(reset.Password).To(Equal("n3w"))
		Expect(reset.LastModifiedAt).NotTo(BeNil())
	})

	It("should clear every table", func() {
		Expect(seed(ctx, services, lg)).To(Succeed())
		Expect(clearTables(db)).To(Succeed())

		_, err := services.Users.LoadUserByUsername(ctx, "admin")
		Expect(internal.IsNotFound(err)).To(BeTrue())
	})
})
