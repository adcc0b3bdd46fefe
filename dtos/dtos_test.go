package dtos

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateCartLineInsert(t *testing.T) {
	ok := CartLineInsert{ProductID: uuid.New(), UserID: uuid.New(), Quantity: 1}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected valid insert, got %v", err)
	}

	zeroQty := ok
	zeroQty.Quantity = 0
	if err := Validate(zeroQty); err == nil {
		t.Error("expected error for zero quantity")
	}

	noProduct := ok
	noProduct.ProductID = uuid.Nil
	if err := Validate(noProduct); err == nil {
		t.Error("expected error for nil product id")
	}
}

func TestValidateOrderInsert(t *testing.T) {
	order := OrderInsert{
		Email:    "buyer@test.com",
		Phone:    "+100000",
		Address:  "1 Main St",
		UserID:   uuid.New(),
		StatusID: "new",
	}
	if err := Validate(order); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}

	order.Email = "not-an-email"
	if err := Validate(order); err == nil {
		t.Error("expected error for invalid email")
	}
}

func TestValidateOrderLineNeedsOrderID(t *testing.T) {
	line := OrderLineInsert{Title: "Tea", Quantity: 1, ProductID: uuid.New()}
	if err := Validate(line); err == nil {
		t.Error("expected error for missing order id")
	}
	line.OrderID = 42
	if err := Validate(line); err != nil {
		t.Errorf("expected valid line, got %v", err)
	}
}

func TestValidateVerifyRequest(t *testing.T) {
	req := VerifyRequest{Email: "a@test.com", Token: "123456", Type: "recovery"}
	if err := Validate(req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.Type = "magiclink"
	if err := Validate(req); err == nil {
		t.Error("expected error for unknown type")
	}

	req.Type = "signup"
	req.Token = "12ab56"
	if err := Validate(req); err == nil {
		t.Error("expected error for non-numeric token")
	}
}

func TestValidateExceptSkipsNamedField(t *testing.T) {
	line := OrderLineInsert{Title: "Tea", Quantity: 1, ProductID: uuid.New()}
	if err := Validate(line); err == nil {
		t.Error("expected error for missing order id")
	}
	if err := ValidateExcept(line, "OrderID"); err != nil {
		t.Errorf("expected line to pass without order id, got %v", err)
	}

	line.Title = ""
	if err := ValidateExcept(line, "OrderID"); err == nil {
		t.Error("expected error for empty title")
	}
}
