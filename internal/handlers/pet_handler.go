package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/service"
)

// PetHandler serves the egg shop and pet equipment
type PetHandler struct {
	gacha  *service.GachaService
	pages  *Renderer
	logger *logging.Logger
}

func NewPetHandler(gacha *service.GachaService, pages *Renderer, logger *logging.Logger) *PetHandler {
	return &PetHandler{gacha: gacha, pages: pages, logger: logger}
}

// ShowPets renders the collection, the equipped slots and the shop
func (h *PetHandler) ShowPets(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	collection, err := h.gacha.Collection(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading pets", err)
		return
	}

	slots := make([]int, models.MaxEquipSlots)
	for i := range slots {
		slots[i] = i + 1
	}
	data := PetsViewData{
		Page:       h.pages.Page(w, r, "Pets"),
		Collection: collection,
		Slots:      slots,
	}
	h.pages.Render(w, r, "pets.tmpl", data)
}

// BuyEgg spends XP on an egg and hatches it
func (h *PetHandler) BuyEgg(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	result, err := h.gacha.Buy(r.Context(), user.ID, r.PathValue("egg"))
	if err != nil {
		h.pages.Fail(w, r, "/pets", "Error buying egg", err)
		return
	}

	msg := fmt.Sprintf("Your %s hatched %s %s (%s)! %d XP left.",
		result.Egg.Name, result.Pet.Emoji, result.Pet.Name, result.Pet.Rarity, result.XPLeft)
	h.pages.Redirect(w, r, "/pets", msg)
}

// Equip puts an owned pet into a slot
func (h *PetHandler) Equip(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	petID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.pages.Fail(w, r, "/pets", "", service.ErrPetNotFound)
		return
	}
	slot, err := strconv.Atoi(r.FormValue("slot"))
	if err != nil {
		h.pages.Fail(w, r, "/pets", "", service.ErrInvalidSlot)
		return
	}

	if err := h.gacha.Equip(r.Context(), user.ID, petID, slot); err != nil {
		h.pages.Fail(w, r, "/pets", "Error equipping pet", err)
		return
	}
	h.pages.Redirect(w, r, "/pets", "Pet equipped.")
}

// Unequip frees a pet's slot
func (h *PetHandler) Unequip(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	petID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.pages.Fail(w, r, "/pets", "", service.ErrPetNotFound)
		return
	}

	if err := h.gacha.Unequip(r.Context(), user.ID, petID); err != nil {
		h.pages.Fail(w, r, "/pets", "Error unequipping pet", err)
		return
	}
	h.pages.Redirect(w, r, "/pets", "Pet unequipped.")
}
