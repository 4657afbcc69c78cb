package http

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/handler/http/response"
)

type VendorHandler interface {
	GetMe(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type vendorHandlerImpl struct {
	vendorRepo vendor.VendorRepository
}

func NewVendorHandler(vendorRepo vendor.VendorRepository) VendorHandler {
	return &vendorHandlerImpl{vendorRepo: vendorRepo}
}

type vendorResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone"`
	Route  string  `json:"route"`
	Active bool    `json:"active"`
}

func toVendorResponse(v vendor.Vendor) vendorResponse {
	return vendorResponse{
		ID:     v.ID,
		Name:   v.Name,
		Email:  v.Email,
		Phone:  v.Phone,
		Route:  v.Route,
		Active: v.Active,
	}
}

// GetMe implements VendorHandler.
func (h *vendorHandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		response.Unauthorized(w, "Invalid token")
		return
	}

	v, err := h.vendorRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, toVendorResponse(v))
}

// List implements VendorHandler.
func (h *vendorHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendorRepo.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		result = append(result, toVendorResponse(v))
	}

	response.Success(w, result)
}
