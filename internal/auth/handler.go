package auth

import (
	"strconv"
	"strings"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/config"
	"pos-backend/internal/logger"
	"pos-backend/internal/store"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type CreateEstablishmentRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	PIN  string `json:"pin" validate:"required,min=4,max=12"`
}

type OpenSessionRequest struct {
	PIN       string `json:"pin" validate:"required"`
	StaffName string `json:"staff_name" validate:"max=100"`
}

type EstablishmentResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type SessionResponse struct {
	Token         string                `json:"token"`
	ExpiresAt     string                `json:"expires_at"`
	Establishment EstablishmentResponse `json:"establishment"`
}

// POST /api/establishments
func CreateEstablishmentHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEstablishmentRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.PIN), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "PIN could not be hashed")
		}

		est, err := st.CreateEstablishment(body.Name, string(hash))
		if err != nil {
			return err
		}
		logger.FromCtx(c).Info("establishment created", zap.Uint("establishment_id", est.ID))

		return c.Status(fiber.StatusCreated).JSON(EstablishmentResponse{
			ID:        est.ID,
			Name:      est.Name,
			CreatedAt: est.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/establishments
func ListEstablishmentsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ests := st.Establishments()
		res := make([]EstablishmentResponse, 0, len(ests))
		for _, e := range ests {
			res = append(res, EstablishmentResponse{
				ID:        e.ID,
				Name:      e.Name,
				CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/establishments/:id/session
// Opens (or switches to) an establishment. The returned token is the only
// thing that scopes later calls, so switching cannot leak the previous tenant.
func OpenSessionHandler(cfg *config.Config, st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return apperror.Validation("invalid establishment id")
		}

		var body OpenSessionRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		est, err := st.Establishment(uint(id))
		if err != nil {
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(est.PINHash), []byte(body.PIN)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong PIN")
		}

		staff := strings.TrimSpace(body.StaffName)
		token, expires, err := GenerateToken(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, est.ID, staff)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}

		return c.JSON(SessionResponse{
			Token:     token,
			ExpiresAt: expires.Format(time.RFC3339),
			Establishment: EstablishmentResponse{
				ID:        est.ID,
				Name:      est.Name,
				CreatedAt: est.CreatedAt.Format("2006-01-02 15:04:05"),
			},
		})
	}
}
