package api

import (
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(authenticator Authenticator, tokens TokenValidator, revoked Revoker, cars CarStore) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Auth: authenticator, Revoked: revoked}
	carsHandler := &CarsHandler{Cars: cars}

	authMW := AuthMiddleware(tokens, revoked)

	// Public.
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.Handle("POST /auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Dealer inventory; every route is scoped to the token's subject.
	mux.Handle("GET /cars", authMW(http.HandlerFunc(carsHandler.List)))
	mux.Handle("POST /cars", authMW(http.HandlerFunc(carsHandler.Create)))
	mux.Handle("GET /cars/search", authMW(http.HandlerFunc(carsHandler.Search)))
	mux.Handle("GET /cars/{id}", authMW(http.HandlerFunc(carsHandler.Get)))
	mux.Handle("PUT /cars/{id}", authMW(http.HandlerFunc(carsHandler.Update)))
	mux.Handle("DELETE /cars/{id}", authMW(http.HandlerFunc(carsHandler.Delete)))
	mux.Handle("PATCH /cars/{id}/stock", authMW(http.HandlerFunc(carsHandler.UpdateStock)))

	return mux
}
