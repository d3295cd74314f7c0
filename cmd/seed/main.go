// Command seed loads an initial admin account and demo data into the
// database. Destructive resets only happen behind the explicit -reset
// flag; nothing in the request path ever drops data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/onichmath/Tarpaulin/internal/config"
	"github.com/onichmath/Tarpaulin/internal/logger"
	"github.com/onichmath/Tarpaulin/internal/model"
	"github.com/onichmath/Tarpaulin/internal/repository"
)

func main() {
	reset := flag.Bool("reset", false, "drop all collections before seeding")
	adminEmail := flag.String("admin-email", "admin@tarpaulin.local", "seed admin email")
	adminPassword := flag.String("admin-password", "", "seed admin password (required)")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(os.Stdout)

	if *adminPassword == "" {
		log.Error("-admin-password is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("db connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.MongoDB)

	if *reset {
		for _, coll := range []string{
			repository.CollUsers,
			repository.CollCourses,
			repository.CollAssignments,
			repository.CollSubmissions,
		} {
			if err := db.Collection(coll).Drop(ctx); err != nil {
				log.Error("drop failed", slog.String("collection", coll), slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		log.Info("collections dropped")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("password hash failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	admin := model.User{
		ID:           uuid.NewString(),
		Name:         "Tarpaulin Admin",
		Email:        *adminEmail,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Courses:      []string{},
	}

	existing := db.Collection(repository.CollUsers).FindOne(ctx, bson.M{"email": admin.Email})
	if existing.Err() == nil {
		log.Info("admin already present", slog.String("email", admin.Email))
		return
	}

	if _, err := db.Collection(repository.CollUsers).InsertOne(ctx, admin); err != nil {
		log.Error("admin insert failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("admin created", slog.String("id", admin.ID), slog.String("email", admin.Email))
}
