package handlers

import (
	"strconv"

	"raffle-system/models"
)

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// pageSlice cuts one fixed-size page out of the full ticket list,
// clamping an out-of-range page to the last one. Returns the slice and
// the page actually served.
func pageSlice(tickets []models.Ticket, page, perPage int) ([]models.Ticket, int) {
	if perPage <= 0 || len(tickets) == 0 {
		return nil, 0
	}

	lastPage := (len(tickets) - 1) / perPage
	if page > lastPage {
		page = lastPage
	}

	start := page * perPage
	end := start + perPage
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[start:end], page
}
