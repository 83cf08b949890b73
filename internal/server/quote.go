package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	paymentprovider "github.com/smartcondo/condominio/internal/providers/payment"
	"github.com/smartcondo/condominio/internal/providers/pdf"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

var receiptMonths = [13]string{
	"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quotedomain.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.quoteSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) GenerateQuotes(c *gin.Context) {
	var req quotedomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quotes, err := s.quoteSvc.GenerateForResidency(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quotes": quotes, "quotes_created": len(quotes)})
}

func (s *Server) GenerateAllQuotes(c *gin.Context) {
	var req quotedomain.GenerateAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.quoteSvc.GenerateForAllActive(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) SweepOverdueQuotes(c *gin.Context) {
	updated, err := s.quoteSvc.SweepOverdue(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes_marked_overdue": updated})
}

func (s *Server) ListQuotes(c *gin.Context) {
	var req quotedomain.ListQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if callerRole(c) != userdomain.RoleAdministrator {
		if req.ResidencyID == "" {
			AbortWithError(c, newValidationError("residency_id", "required", "residency_id is required"))
			return
		}
		if err := s.ensureResidencyOwner(c, req.ResidencyID); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetQuoteSummary(c *gin.Context) {
	var req quotedomain.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if callerRole(c) != userdomain.RoleAdministrator {
		if req.ResidencyID == "" {
			AbortWithError(c, newValidationError("residency_id", "required", "residency_id is required"))
			return
		}
		if err := s.ensureResidencyOwner(c, req.ResidencyID); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	summary, err := s.quoteSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) GetQuoteByID(c *gin.Context) {
	quote, err := s.quoteForCaller(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Manual payments always name the method used; gateway payments go
// through the webhook instead and never hit this endpoint.
type payQuoteRequest struct {
	PaymentMethodID string     `json:"payment_method_id" binding:"required"`
	Reference       string     `json:"reference"`
	PaidDate        *time.Time `json:"paid_date"`
}

func (s *Server) PayQuote(c *gin.Context) {
	var req payQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.quoteForCaller(c); err != nil {
		AbortWithError(c, err)
		return
	}

	paid, err := s.quoteSvc.MarkPaid(c.Request.Context(), quotedomain.MarkPaidRequest{
		QuoteID:         c.Param("id"),
		PaymentMethodID: req.PaymentMethodID,
		Reference:       req.Reference,
		PaidDate:        req.PaidDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paid)
}

func (s *Server) CancelQuote(c *gin.Context) {
	cancelled, err := s.quoteSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

type paymentIntentRequest struct {
	Gateway  string `json:"gateway"`
	Currency string `json:"currency"`
}

// CreateQuotePaymentIntent starts a gateway checkout for an outstanding
// quote. The quote ID travels as the intent reference and comes back in
// the webhook.
func (s *Server) CreateQuotePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quote, err := s.quoteForCaller(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !quote.Outstanding() {
		AbortWithError(c, quotedomain.ErrAlreadyPaid)
		return
	}

	provider, err := s.payments.Get(req.Gateway)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "MXN"
	}

	result, err := provider.CreateIntent(c.Request.Context(), paymentprovider.Intent{
		Reference:   quote.ID.String(),
		AmountCents: quote.AmountCents,
		Currency:    currency,
		Description: quote.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"gateway":      req.Gateway,
		"external_id":  result.ExternalID,
		"checkout_url": result.CheckoutURL,
		"status":       result.Status,
	})
}

func (s *Server) GetQuoteReceipt(c *gin.Context) {
	quote, err := s.quoteForCaller(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if quote.Status != quotedomain.StatusPaid {
		AbortWithError(c, newValidationError("status", "quote_not_paid", "receipt is available for paid quotes only"))
		return
	}

	ctx := c.Request.Context()
	residency, err := s.residencySvc.GetByID(ctx, quote.ResidencyID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	unit, err := s.unitSvc.GetByID(ctx, residency.UnitID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resident, err := s.userSvc.GetByID(ctx, residency.UserID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	paidAt := ""
	if quote.PaidDate != nil {
		paidAt = quote.PaidDate.Format("02/01/2006")
	}

	data := pdf.ReceiptData{
		ReceiptNumber: "REC-" + quote.ID.String(),
		IssuedAt:      s.clock.Now().Format("02/01/2006"),
		PaidAt:        paidAt,
		Period:        receiptPeriod(quote),
		CondoName:     s.cfg.CondoName,
		CondoAddress:  s.cfg.CondoAddress,
		CondoEmail:    s.cfg.CondoEmail,
		ResidentName:  resident.FullName(),
		UnitCode:      unit.Code,
		Description:   quote.Description,
		Amount:        formatCents(quote.AmountCents),
		Method:        s.paymentMethodName(c, quote),
		Reference:     quote.PaymentReference,
	}

	doc, err := s.pdfSvc.GenerateReceipt(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	rendered, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=recibo-%s.pdf", quote.ID.String()))
	c.Data(http.StatusOK, "application/pdf", rendered)
}

func (s *Server) CreatePaymentMethod(c *gin.Context) {
	var req quotedomain.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.quoteSvc.CreatePaymentMethod(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	methods, err := s.quoteSvc.ListPaymentMethods(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

func (s *Server) DeletePaymentMethod(c *gin.Context) {
	if err := s.quoteSvc.DeletePaymentMethod(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// quoteForCaller loads the quote from the path and enforces that
// non-administrators only reach quotes billed through a residency they
// hold.
func (s *Server) quoteForCaller(c *gin.Context) (quotedomain.Quote, error) {
	quote, err := s.quoteSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return quotedomain.Quote{}, err
	}
	if callerRole(c) == userdomain.RoleAdministrator {
		return quote, nil
	}
	if err := s.ensureResidencyOwner(c, quote.ResidencyID.String()); err != nil {
		return quotedomain.Quote{}, err
	}
	return quote, nil
}

func (s *Server) ensureResidencyOwner(c *gin.Context, residencyID string) error {
	residency, err := s.residencySvc.GetByID(c.Request.Context(), residencyID)
	if err != nil {
		return err
	}
	if residency.UserID.String() != callerID(c) {
		return ErrForbidden
	}
	return nil
}

func (s *Server) paymentMethodName(c *gin.Context, quote quotedomain.Quote) string {
	if quote.PaymentMethodID == nil {
		// Gateway payments carry the method name in the payment data.
		name, _ := quote.PaymentData["method"].(string)
		return name
	}
	methods, err := s.quoteSvc.ListPaymentMethods(c.Request.Context())
	if err != nil {
		return ""
	}
	for _, method := range methods {
		if method.ID == *quote.PaymentMethodID {
			return method.Name
		}
	}
	return ""
}

func receiptPeriod(quote quotedomain.Quote) string {
	if quote.PeriodMonth == nil {
		return fmt.Sprintf("Anualidad %d", quote.PeriodYear)
	}
	month := *quote.PeriodMonth
	if month < 1 || month > 12 {
		return fmt.Sprintf("%d", quote.PeriodYear)
	}
	return fmt.Sprintf("%s %d", receiptMonths[month], quote.PeriodYear)
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
