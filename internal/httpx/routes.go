package httpx

import (
	"github.com/go-chi/chi/v5"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
)

type API struct {
	Gate    *auth.Gate
	Webhook *WebhookHandler
	Users   *UsersHandler
	Clothes *ClothesHandler
	Bills   *BillsHandler
	Reviews *ReviewsHandler
}

func (a *API) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/hooks/payment", a.Webhook.payment)
		r.Post("/user/register", a.Users.register)
		r.Post("/user/login", a.Users.login)
		r.Post("/user/logout", a.Users.logout)
		r.Get("/account", a.Users.account)
		r.Get("/clothes/get", a.Clothes.get)
		r.Get("/review/get", a.Reviews.get)

		r.Group(func(r chi.Router) {
			r.Use(a.Gate.CheckCookie, a.Gate.Authorize)

			r.Get("/user/get", a.Users.get)
			r.Put("/user/update", a.Users.update)

			r.Post("/clothes/create", a.Clothes.create)
			r.Put("/clothes/update", a.Clothes.update)
			r.Delete("/clothes/delete", a.Clothes.delete)

			r.Post("/bill/create", a.Bills.create)
			r.Get("/bill/get", a.Bills.get)
			r.Put("/bill/update", a.Bills.update)
			r.Delete("/bill/delete", a.Bills.delete)

			r.Post("/review/create", a.Reviews.create)
			r.Put("/review/update", a.Reviews.update)
			r.Delete("/review/delete", a.Reviews.delete)
		})
	})
}
