package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/config"
	"github.com/muhfarrasm/HematYu-Service/internal/database"
	"github.com/muhfarrasm/HematYu-Service/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:    filepath.Join(t.TempDir(), "service_test.db"),
		LogMode: false,
	}
	db, err := database.Init(cfg)
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	return &user
}

func seedPemasukan(t *testing.T, db *gorm.DB, userID uint, jumlah int64) *models.Pemasukan {
	t.Helper()
	kategori := models.KategoriPemasukan{UserID: userID, NamaKategori: "Gaji"}
	if err := db.Where("user_id = ? AND nama_kategori = ?", userID, "Gaji").
		FirstOrCreate(&kategori).Error; err != nil {
		t.Fatalf("Create kategori failed: %v", err)
	}
	pemasukan := models.Pemasukan{
		UserID:     userID,
		KategoriID: kategori.ID,
		Jumlah:     decimal.NewFromInt(jumlah),
		Tanggal:    time.Now().AddDate(0, 0, -1),
	}
	if err := db.Create(&pemasukan).Error; err != nil {
		t.Fatalf("Create pemasukan failed: %v", err)
	}
	return &pemasukan
}

func seedTarget(t *testing.T, db *gorm.DB, userID uint, dana int64, deadline time.Time) *models.Target {
	t.Helper()
	kategori := models.KategoriTarget{UserID: userID, NamaKategori: "Tabungan"}
	if err := db.Where("user_id = ? AND nama_kategori = ?", userID, "Tabungan").
		FirstOrCreate(&kategori).Error; err != nil {
		t.Fatalf("Create kategori target failed: %v", err)
	}
	target := models.Target{
		UserID:           userID,
		KategoriTargetID: kategori.ID,
		NamaTarget:       "Dana darurat",
		TargetDana:       decimal.NewFromInt(dana),
		TargetTanggal:    deadline,
		Status:           models.StatusAktif,
	}
	if err := db.Create(&target).Error; err != nil {
		t.Fatalf("Create target failed: %v", err)
	}
	return &target
}

func reloadTarget(t *testing.T, db *gorm.DB, id uint) *models.Target {
	t.Helper()
	var target models.Target
	if err := db.First(&target, id).Error; err != nil {
		t.Fatalf("Reload target failed: %v", err)
	}
	return &target
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestCreateAlokasi_UpdatesTargetProgress(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entryA := seedPemasukan(t, db, user.ID, 400000)

	relasi, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entryA.ID,
		JumlahAlokasi: decimal.NewFromInt(300000),
	})
	if err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}
	if relasi.ID == 0 {
		t.Error("allocation should be persisted")
	}

	got := reloadTarget(t, db, target.ID)
	if !got.Terkumpul.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("terkumpul = %s, want 300000", got.Terkumpul)
	}
	if got.Status != models.StatusAktif {
		t.Errorf("status = %s, want aktif", got.Status)
	}
}

func TestCreateAlokasi_RejectsOverdrawnEntry(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entryA := seedPemasukan(t, db, user.ID, 400000)
	entryB := seedPemasukan(t, db, user.ID, 200000)

	if _, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entryA.ID,
		JumlahAlokasi: decimal.NewFromInt(300000),
	}); err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}

	// 250000 exceeds both entry B (200000) and the remaining 200000 on
	// the target
	_, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entryB.ID,
		JumlahAlokasi: decimal.NewFromInt(250000),
	})
	fields := fieldsOf(t, err)
	if len(fields["jumlah_alokasi"]) == 0 {
		t.Errorf("expected jumlah_alokasi errors, got %v", fields)
	}

	// the failed write must not move the target
	got := reloadTarget(t, db, target.ID)
	if !got.Terkumpul.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("terkumpul = %s, want 300000", got.Terkumpul)
	}
}

func TestCreateAlokasi_ReachesGoal(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entryA := seedPemasukan(t, db, user.ID, 400000)
	entryB := seedPemasukan(t, db, user.ID, 200000)

	for _, in := range []AlokasiInput{
		{IDTarget: target.ID, IDPemasukan: entryA.ID, JumlahAlokasi: decimal.NewFromInt(300000)},
		{IDTarget: target.ID, IDPemasukan: entryB.ID, JumlahAlokasi: decimal.NewFromInt(200000)},
	} {
		if _, err := CreateAlokasi(db, user.ID, in); err != nil {
			t.Fatalf("CreateAlokasi failed: %v", err)
		}
	}

	got := reloadTarget(t, db, target.ID)
	if !got.Terkumpul.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("terkumpul = %s, want 500000", got.Terkumpul)
	}
	if got.Status != models.StatusTercapai {
		t.Errorf("status = %s, want tercapai", got.Status)
	}
}

func TestCreateAlokasi_RejectsInactiveTarget(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 100000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, user.ID, 400000)

	if _, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(100000),
	}); err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}
	if got := reloadTarget(t, db, target.ID); got.Status != models.StatusTercapai {
		t.Fatalf("status = %s, want tercapai", got.Status)
	}

	entry2 := seedPemasukan(t, db, user.ID, 50000)
	_, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry2.ID,
		JumlahAlokasi: decimal.NewFromInt(10000),
	})
	fields := fieldsOf(t, err)
	if len(fields["id_target"]) == 0 {
		t.Errorf("expected id_target error, got %v", fields)
	}
}

func TestCreateAlokasi_RejectsDuplicatePair(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, user.ID, 400000)

	if _, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(100000),
	}); err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}

	_, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(50000),
	})
	fields := fieldsOf(t, err)
	if len(fields["id_pemasukan"]) == 0 {
		t.Errorf("expected id_pemasukan error, got %v", fields)
	}
}

func TestCreateAlokasi_RejectsBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, user.ID, 400000)

	_, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(500),
	})
	fields := fieldsOf(t, err)
	if len(fields["jumlah_alokasi"]) == 0 {
		t.Errorf("expected jumlah_alokasi error, got %v", fields)
	}
}

func TestCreateAlokasi_HidesForeignRows(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "budi")
	intruder := seedUser(t, db, "siti")
	target := seedTarget(t, db, owner.ID, 500000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, owner.ID, 400000)

	_, err := CreateAlokasi(db, intruder.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(100000),
	})
	fields := fieldsOf(t, err)
	if len(fields["id_target"]) == 0 || len(fields["id_pemasukan"]) == 0 {
		t.Errorf("expected ownership errors on both references, got %v", fields)
	}
}

func TestUpdateAlokasi_PriorAmountCountsAsHeadroom(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, user.ID, 400000)

	relasi, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(300000),
	})
	if err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}

	// raising to 400000 only works because the prior 300000 frees up
	updated, err := UpdateAlokasi(db, user.ID, relasi.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(400000),
	})
	if err != nil {
		t.Fatalf("UpdateAlokasi failed: %v", err)
	}
	if !updated.JumlahAlokasi.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("jumlah_alokasi = %s, want 400000", updated.JumlahAlokasi)
	}

	got := reloadTarget(t, db, target.ID)
	if !got.Terkumpul.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("terkumpul = %s, want 400000", got.Terkumpul)
	}

	// but 400001 overdraws the entry
	_, err = UpdateAlokasi(db, user.ID, relasi.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(400001),
	})
	if err == nil {
		t.Error("expected overdraw rejection")
	}
}

func TestDeleteAlokasi_RecomputesTarget(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 100000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, user.ID, 400000)

	relasi, err := CreateAlokasi(db, user.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}
	if got := reloadTarget(t, db, target.ID); got.Status != models.StatusTercapai {
		t.Fatalf("status = %s, want tercapai", got.Status)
	}

	if err := DeleteAlokasi(db, user.ID, relasi.ID); err != nil {
		t.Fatalf("DeleteAlokasi failed: %v", err)
	}

	got := reloadTarget(t, db, target.ID)
	if !got.Terkumpul.IsZero() {
		t.Errorf("terkumpul = %s, want 0", got.Terkumpul)
	}
	if got.Status != models.StatusAktif {
		t.Errorf("status = %s, want aktif", got.Status)
	}
}

func TestDeleteAlokasi_NotFoundForForeignUser(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "budi")
	intruder := seedUser(t, db, "siti")
	target := seedTarget(t, db, owner.ID, 500000, time.Now().AddDate(0, 1, 0))
	entry := seedPemasukan(t, db, owner.ID, 400000)

	relasi, err := CreateAlokasi(db, owner.ID, AlokasiInput{
		IDTarget:      target.ID,
		IDPemasukan:   entry.ID,
		JumlahAlokasi: decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("CreateAlokasi failed: %v", err)
	}

	if err := DeleteAlokasi(db, intruder.ID, relasi.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecomputeTarget_MissedDeadline(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "budi")
	target := seedTarget(t, db, user.ID, 500000, time.Now().AddDate(0, 0, -1))

	if err := RecomputeTarget(db, target.ID); err != nil {
		t.Fatalf("RecomputeTarget failed: %v", err)
	}
	if got := reloadTarget(t, db, target.ID); got.Status != models.StatusTidakTercapai {
		t.Errorf("status = %s, want tidak_tercapai", got.Status)
	}
}
