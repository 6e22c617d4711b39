package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/payment"
)

type receiptRequest struct {
	ReceiptURL string `json:"receipt_url"`
}

type signedDocumentRequest struct {
	SignedDocumentURL string `json:"signed_document_url"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// PaymentController exposes the payment workflow over HTTP
type PaymentController struct {
	payments *payment.Service
}

func NewPaymentController(payments *payment.Service) *PaymentController {
	return &PaymentController{payments: payments}
}

// HandleCreate handles POST /payments
func (pc *PaymentController) HandleCreate(c *fiber.Ctx) error {
	var in payment.CreateInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := pc.payments.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// HandleList handles GET /payments?project_id=&status=
func (pc *PaymentController) HandleList(c *fiber.Ctx) error {
	list, err := pc.payments.List(c.UserContext(), callerOf(c), payment.ListFilter{
		ProjectID: c.Query("project_id"),
		Status:    c.Query("status"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"payments": list})
}

// HandleGet handles GET /payments/:id
func (pc *PaymentController) HandleGet(c *fiber.Ctx) error {
	p, err := pc.payments.Get(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleUploadReceipt handles POST /payments/:id/receipt
func (pc *PaymentController) HandleUploadReceipt(c *fiber.Ctx) error {
	var in receiptRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := pc.payments.UploadReceipt(c.UserContext(), callerOf(c), c.Params("id"), in.ReceiptURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleUploadSignedDocument handles POST /payments/:id/signed-document
func (pc *PaymentController) HandleUploadSignedDocument(c *fiber.Ctx) error {
	var in signedDocumentRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := pc.payments.UploadSignedDocument(c.UserContext(), callerOf(c), c.Params("id"), in.SignedDocumentURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleUpdateStatus handles POST /payments/:id/status
func (pc *PaymentController) HandleUpdateStatus(c *fiber.Ctx) error {
	var in statusRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := pc.payments.UpdateStatus(c.UserContext(), callerOf(c), c.Params("id"), models.PaymentStatus(in.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

var paymentController *PaymentController

// InitializePaymentController wires the global payment controller
func InitializePaymentController(publisher events.Publisher, policy payment.Policy) {
	paymentController = NewPaymentController(payment.NewService(repository.GetGlobalRepositories(), publisher, policy))
}

// GetPaymentController returns the global payment controller instance
func GetPaymentController() *PaymentController {
	if paymentController == nil {
		InitializePaymentController(events.NopPublisher{}, payment.LoadPolicy())
	}
	return paymentController
}
