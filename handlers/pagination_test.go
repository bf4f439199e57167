package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-system/models"
)

func ticketPool(n int) []models.Ticket {
	pool := make([]models.Ticket, n)
	for i := range pool {
		pool[i] = models.Ticket{Number: i + 1, Status: models.StatusAvailable}
	}
	return pool
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 0, parsePage(""))
	assert.Equal(t, 0, parsePage("abc"))
	assert.Equal(t, 0, parsePage("-3"))
	assert.Equal(t, 7, parsePage("7"))
}

func TestPageSlice(t *testing.T) {
	pool := ticketPool(1000)

	first, page := pageSlice(pool, 0, 100)
	require.Len(t, first, 100)
	assert.Equal(t, 0, page)
	assert.Equal(t, 1, first[0].Number)
	assert.Equal(t, 100, first[99].Number)

	last, page := pageSlice(pool, 9, 100)
	require.Len(t, last, 100)
	assert.Equal(t, 9, page)
	assert.Equal(t, 901, last[0].Number)
	assert.Equal(t, 1000, last[99].Number)
}

func TestPageSlice_ClampsOutOfRange(t *testing.T) {
	pool := ticketPool(1000)

	tickets, page := pageSlice(pool, 42, 100)
	require.Len(t, tickets, 100)
	assert.Equal(t, 9, page)
	assert.Equal(t, 901, tickets[0].Number)
}

func TestPageSlice_PartialLastPage(t *testing.T) {
	pool := ticketPool(250)

	tickets, page := pageSlice(pool, 2, 100)
	require.Len(t, tickets, 50)
	assert.Equal(t, 2, page)
	assert.Equal(t, 201, tickets[0].Number)
	assert.Equal(t, 250, tickets[49].Number)
}

func TestPageSlice_EmptyPool(t *testing.T) {
	tickets, page := pageSlice(nil, 3, 100)
	assert.Empty(t, tickets)
	assert.Equal(t, 0, page)
}
