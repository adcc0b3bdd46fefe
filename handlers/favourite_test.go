package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-core/models"
)

func TestAddAndListFavourites(t *testing.T) {
	db := freshDB()
	router := setupRestRouter(db)

	user, token := seedTestUser(db, "fav@test.com")
	cat := seedCategory(db, "FavCat")
	prod := seedProduct(db, "Fav Product", cat.ID, "2.00")

	body := map[string]interface{}{"product_id": prod.ID.String(), "user_id": user.ID.String()}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/rest/v1/favourite", body, token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	// A second insert stores a duplicate row.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/rest/v1/favourite", body, token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/rest/v1/favourite?product_id=eq."+prod.ID.String(), nil, token))
	if result := parseResponseArray(w); len(result) != 2 {
		t.Errorf("expected 2 favourite rows, got %d", len(result))
	}
}

func TestRemoveFavouriteDeletesAllDuplicates(t *testing.T) {
	db := freshDB()
	router := setupRestRouter(db)

	user, token := seedTestUser(db, "unfav@test.com")
	cat := seedCategory(db, "FavCat")
	prod := seedProduct(db, "Fav Product", cat.ID, "2.00")
	db.Create(&models.FavoriteLink{UserID: user.ID, ProductID: prod.ID})
	db.Create(&models.FavoriteLink{UserID: user.ID, ProductID: prod.ID})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/rest/v1/favourite?product_id=eq."+prod.ID.String()+"&user_id=eq."+user.ID.String(), nil, token))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.FavoriteLink{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no favourites left, got %d", count)
	}
}

func TestFavouritesAnonymousSeesNothing(t *testing.T) {
	db := freshDB()
	router := setupRestRouter(db)

	user, _ := seedTestUser(db, "anonfav@test.com")
	cat := seedCategory(db, "FavCat")
	prod := seedProduct(db, "Fav Product", cat.ID, "2.00")
	db.Create(&models.FavoriteLink{UserID: user.ID, ProductID: prod.ID})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/rest/v1/favourite", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if result := parseResponseArray(w); len(result) != 0 {
		t.Errorf("expected no rows, got %d", len(result))
	}
}
