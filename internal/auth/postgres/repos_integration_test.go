// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/internal/auth/postgres"
)

func ptr[T any](v T) *T { return &v }

var _ = Describe("Auth repositories", func() {
	var (
		ctx      context.Context
		hasher   auth.PasswordHasher
		users    *postgres.UserRepository
		sessions *postgres.SessionRepository
		resets   *postgres.PasswordResetRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		hasher, err = auth.NewBcryptHasher(bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		users = postgres.NewUserRepository(testPool, hasher)
		sessions = postgres.NewSessionRepository(testPool)
		resets = postgres.NewPasswordResetRepository(testPool)

		DeferCleanup(func() {
			_, err := testPool.Exec(ctx, `TRUNCATE users, sessions, password_resets RESTART IDENTITY CASCADE`)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	newUser := func(name string) *auth.User {
		u := &auth.User{
			Username: name,
			Email:    ptr(name + "@Example.com"),
			FullName: ptr("Test " + name),
			Password: "secret1",
			Role:     auth.RoleStaff,
		}
		Expect(users.Create(ctx, u)).To(Succeed())
		return u
	}

	Describe("UserRepository", func() {
		It("stores a hash and a lower-cased email", func() {
			u := newUser("erin")
			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.Password).NotTo(Equal("secret1"))

			found, err := users.FindByEmail(ctx, "ERIN@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(*found.Email).To(Equal("erin@example.com"))
			Expect(found.Status).To(Equal(auth.StatusInactive))
			Expect(hasher.Verify("secret1", found.Password)).To(BeTrue())
		})

		It("rejects a duplicate username or email", func() {
			newUser("frank")
			err := users.Create(ctx, &auth.User{Username: "frank", Password: "secret1"})
			Expect(err).To(MatchError(auth.ErrConflict))

			err = users.Create(ctx, &auth.User{Username: "frank2", Email: ptr("FRANK@example.com"), Password: "secret1"})
			Expect(err).To(MatchError(auth.ErrConflict))
		})

		It("rehashes only a changed password on save", func() {
			u := newUser("gina")
			stored := u.Password

			u.Status = auth.StatusActive
			Expect(users.Save(ctx, u)).To(Succeed())
			Expect(u.Password).To(Equal(stored))

			u.Password = "n3wsecret"
			Expect(users.Save(ctx, u)).To(Succeed())

			found, err := users.FindByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Status).To(Equal(auth.StatusActive))
			Expect(hasher.Verify("n3wsecret", found.Password)).To(BeTrue())
		})

		It("reports a missing user on save", func() {
			err := users.Save(ctx, &auth.User{ID: 424242, Username: "nobody", Password: "x"})
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("SessionRepository", func() {
		It("hides soft-deleted sessions", func() {
			u := newUser("hank")
			now := time.Now().UTC().Truncate(time.Microsecond)

			first, err := auth.NewSession(u.ID, now)
			Expect(err).NotTo(HaveOccurred())
			second, err := auth.NewSession(u.ID, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, first)).To(Succeed())
			Expect(sessions.Create(ctx, second)).To(Succeed())

			found, err := sessions.FindByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.UserID).To(Equal(u.ID))

			Expect(sessions.SoftDelete(ctx, first.ID)).To(Succeed())
			Expect(sessions.SoftDelete(ctx, first.ID)).To(Succeed())
			found, err = sessions.FindByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())

			Expect(sessions.SoftDeleteByUser(ctx, u.ID)).To(Succeed())
			found, err = sessions.FindByID(ctx, second.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("returns nil for an unknown session", func() {
			found, err := sessions.FindByID(ctx, ulid.Make())
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})
	})

	Describe("PasswordResetRepository", func() {
		It("consumes a hash exactly once", func() {
			u := newUser("iris")
			hash, err := auth.GenerateHash()
			Expect(err).NotTo(HaveOccurred())

			req, err := auth.NewPasswordResetRequest(u.ID, hash, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(resets.Create(ctx, req)).To(Succeed())

			found, err := resets.FindByHash(ctx, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(req.ID))

			Expect(resets.SoftDelete(ctx, req.ID)).To(Succeed())
			found, err = resets.FindByHash(ctx, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})
	})
})
