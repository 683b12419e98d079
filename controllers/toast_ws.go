package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"babyshop/crud"
	"babyshop/dashboard"
	"babyshop/models"
)

type toastMessage struct {
	Toast *crud.Toast `json:"toast"`
}

type userMessage struct {
	User *models.User `json:"user"`
}

// ToastUpgrade only lets websocket handshakes through.
func ToastUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleToastWS pushes the dashboard's toast slot and signed-in user to the
// browser: both on connect, then every change. A null toast means dismissed;
// a null user means signed out and ends the stream.
func HandleToastWS(logger *logrus.Entry) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		d, ok := c.Locals("dashboard").(*dashboard.Dashboard)
		if !ok {
			return
		}

		updates := make(chan *crud.Toast, 8)
		unsubscribe := d.Toaster.Subscribe(func(t *crud.Toast) {
			select {
			case updates <- t:
			default:
				logger.WithField("dashboard", d.ID[:8]).Debug("toast subscriber lagging, update dropped")
			}
		})
		defer unsubscribe()

		users := make(chan *models.User, 4)
		stopObserving := d.Session.Observe(func(u *models.User) {
			select {
			case users <- u:
			default:
				logger.WithField("dashboard", d.ID[:8]).Debug("profile subscriber lagging, update dropped")
			}
		})
		defer stopObserving()

		// the client never sends anything; reading detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		var current *crud.Toast
		if t, ok := d.Toaster.Current(); ok {
			current = &t
		}
		if err := c.WriteJSON(toastMessage{Toast: current}); err != nil {
			return
		}

		for {
			select {
			case <-closed:
				return
			case <-d.Context().Done():
				return
			case t := <-updates:
				if err := c.WriteJSON(toastMessage{Toast: t}); err != nil {
					logger.WithError(err).Debug("toast socket write failed")
					return
				}
			case u := <-users:
				if err := c.WriteJSON(userMessage{User: u}); err != nil {
					logger.WithError(err).Debug("toast socket write failed")
					return
				}
				if u == nil {
					return
				}
			}
		}
	}
}
