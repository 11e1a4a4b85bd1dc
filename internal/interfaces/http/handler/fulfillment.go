package handler

import (
	"github.com/gin-gonic/gin"
	fulfillmentapp "github.com/storefront/backend/internal/application/fulfillment"
)

// FulfillmentHandler manages packages and shipments of an order
type FulfillmentHandler struct {
	BaseHandler
	fulfillmentService *fulfillmentapp.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(fulfillmentService *fulfillmentapp.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentService: fulfillmentService}
}

// Unpackaged godoc
// @Summary      Products not yet packaged
// @Tags         fulfillment
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[[]fulfillmentapp.ShippableProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/packages/new [get]
func (h *FulfillmentHandler) Unpackaged(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	products, err := h.fulfillmentService.Unpackaged(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Packages godoc
// @Summary      List packages
// @Tags         fulfillment
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[fulfillmentapp.PackagesResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/packages [get]
func (h *FulfillmentHandler) Packages(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	packages, err := h.fulfillmentService.Packages(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, packages)
}

// CreatePackages godoc
// @Summary      Package products
// @Description  Put the selected products in one package, or one package per unit when separate_packages is set
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body fulfillmentapp.CreatePackagesRequest true "Products"
// @Success      201 {object} APIResponse[[]fulfillmentapp.PackageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/packages [post]
func (h *FulfillmentHandler) CreatePackages(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req fulfillmentapp.CreatePackagesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	packages, err := h.fulfillmentService.CreatePackages(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, packages)
}

// UpdatePackage godoc
// @Summary      Edit a package
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        package_id path string true "Package ID" format(uuid)
// @Param        request body fulfillmentapp.UpdatePackageRequest true "Package"
// @Success      200 {object} APIResponse[fulfillmentapp.PackageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/packages/{package_id} [put]
func (h *FulfillmentHandler) UpdatePackage(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	packageID, ok := h.pathUUID(c, "package_id", "package")
	if !ok {
		return
	}
	var req fulfillmentapp.UpdatePackageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	pkg, err := h.fulfillmentService.UpdatePackage(c.Request.Context(), orderID, packageID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pkg)
}

// DeletePackage godoc
// @Summary      Delete a package
// @Description  Shipped packages cannot be deleted
// @Tags         fulfillment
// @Param        id path string true "Order ID" format(uuid)
// @Param        package_id path string true "Package ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/packages/{package_id} [delete]
func (h *FulfillmentHandler) DeletePackage(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	packageID, ok := h.pathUUID(c, "package_id", "package")
	if !ok {
		return
	}
	if err := h.fulfillmentService.DeletePackage(c.Request.Context(), orderID, packageID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Shipments godoc
// @Summary      List shipments
// @Tags         fulfillment
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[fulfillmentapp.ShipmentsResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/shipments [get]
func (h *FulfillmentHandler) Shipments(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	shipments, err := h.fulfillmentService.Shipments(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipments)
}

// CreateShipment godoc
// @Summary      Ship packages
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body fulfillmentapp.ShipmentRequest true "Shipment"
// @Success      201 {object} APIResponse[fulfillmentapp.ShipmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/shipments [post]
func (h *FulfillmentHandler) CreateShipment(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	var req fulfillmentapp.ShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	shipment, err := h.fulfillmentService.CreateShipment(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, shipment)
}

// UpdateShipment godoc
// @Summary      Edit a shipment
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        shipment_id path string true "Shipment ID" format(uuid)
// @Param        request body fulfillmentapp.ShipmentRequest true "Shipment"
// @Success      200 {object} APIResponse[fulfillmentapp.ShipmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/shipments/{shipment_id} [put]
func (h *FulfillmentHandler) UpdateShipment(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	shipmentID, ok := h.pathUUID(c, "shipment_id", "shipment")
	if !ok {
		return
	}
	var req fulfillmentapp.ShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	shipment, err := h.fulfillmentService.UpdateShipment(c.Request.Context(), orderID, shipmentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// DeleteShipment godoc
// @Summary      Delete a shipment
// @Description  Its packages become unshipped again
// @Tags         fulfillment
// @Param        id path string true "Order ID" format(uuid)
// @Param        shipment_id path string true "Shipment ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/store/orders/{id}/shipments/{shipment_id} [delete]
func (h *FulfillmentHandler) DeleteShipment(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id", "order")
	if !ok {
		return
	}
	shipmentID, ok := h.pathUUID(c, "shipment_id", "shipment")
	if !ok {
		return
	}
	if err := h.fulfillmentService.DeleteShipment(c.Request.Context(), orderID, shipmentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
