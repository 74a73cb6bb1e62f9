package routes

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-verify/campus_verify/internal/verify"
)

// RegisterVerificationRoutes wires the two protocol operations. These
// handlers are the dispatcher boundary: the chat platform integration posts
// the caller's identity, current role names and raw command text, and this
// layer renders the protocol outcome as a human-readable reply.
func RegisterVerificationRoutes(r fiber.Router, svc *verify.Service) {
	r.Post("/verification/request", func(c *fiber.Ctx) error {
		var req struct {
			Identity string   `json:"identity"`
			Roles    []string `json:"roles"`
			Args     string   `json:"args"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if req.Identity == "" {
			return fiber.NewError(http.StatusBadRequest, "identity is required")
		}

		res := svc.Request(c.UserContext(), req.Identity, req.Roles, req.Args)
		return renderResult(c, req.Identity, res)
	})

	r.Post("/verification/code", func(c *fiber.Ctx) error {
		var req struct {
			Identity string   `json:"identity"`
			Roles    []string `json:"roles"`
			Code     string   `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if req.Identity == "" {
			return fiber.NewError(http.StatusBadRequest, "identity is required")
		}

		res := svc.Submit(c.UserContext(), req.Identity, req.Roles, req.Code)
		return renderResult(c, req.Identity, res)
	})
}

func renderResult(c *fiber.Ctx, identity string, res verify.Result) error {
	return c.Status(statusFor(res.Outcome)).JSON(fiber.Map{
		"outcome": res.Outcome.String(),
		"message": messageFor(identity, res),
	})
}

func statusFor(o verify.Outcome) int {
	switch o {
	case verify.OutcomeRequestCreated:
		return http.StatusCreated
	case verify.OutcomeCodeResent, verify.OutcomeEmailUpdated, verify.OutcomeVerified:
		return http.StatusOK
	case verify.OutcomeInvalidInput, verify.OutcomeNoCodeSupplied:
		return http.StatusBadRequest
	case verify.OutcomeCodeRejected:
		return http.StatusForbidden
	case verify.OutcomeAlreadyVerified, verify.OutcomeEmailAlreadyUsed:
		return http.StatusConflict
	case verify.OutcomeDeliveryFailed, verify.OutcomeGrantFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor renders the reply the chat dispatcher shows the user. Internal
// failures deliberately carry no detail beyond the outcome itself.
func messageFor(identity string, res verify.Result) string {
	switch res.Outcome {
	case verify.OutcomeRequestCreated:
		return "Verification email sent. Please check your inbox (spam folder)."
	case verify.OutcomeCodeResent:
		return "Verification email resent. Please check your inbox."
	case verify.OutcomeEmailUpdated:
		return fmt.Sprintf("Email updated for user @%s. Verification email resent. Please check your inbox.", identity)
	case verify.OutcomeAlreadyVerified:
		return fmt.Sprintf("User @%s is already verified.", identity)
	case verify.OutcomeEmailAlreadyUsed:
		return "Email has already been used for verification. Please use another one."
	case verify.OutcomeInvalidInput:
		return "Error: " + res.Reason
	case verify.OutcomeNoCodeSupplied:
		return "No code was supplied, please try again."
	case verify.OutcomeVerified:
		return "Verification successful! Congrats!"
	case verify.OutcomeCodeRejected:
		return "Verification failed, please try again."
	case verify.OutcomeDeliveryFailed:
		return "Could not send the verification email. Please try again later."
	case verify.OutcomeRoleMisconfigured:
		return "Internal configuration error. Please report this to an admin."
	case verify.OutcomeGrantFailed:
		return "Could not grant the role. Please contact an admin."
	default:
		return "Internal error. Please try again later."
	}
}
