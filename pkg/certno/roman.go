package certno

import "strings"

// MaxBook is the highest book ordinal in use.
const MaxBook = 50

// Book is one entry of the book selection list.
type Book struct {
	Ordinal int    `json:"ordinal"`
	Numeral string `json:"numeral"`
}

var numeralSteps = []struct {
	value  int
	symbol string
}{
	{50, "L"},
	{40, "XL"},
	{10, "X"},
	{9, "IX"},
	{5, "V"},
	{4, "IV"},
	{1, "I"},
}

var bookOrdinals = func() map[string]int {
	m := make(map[string]int, MaxBook)
	for i := 1; i <= MaxBook; i++ {
		m[ToRoman(i)] = i
	}
	return m
}()

// ToRoman encodes n as an upper-case roman numeral. Only 1..MaxBook is
// supported; anything else returns "".
func ToRoman(n int) string {
	if n < 1 || n > MaxBook {
		return ""
	}
	var b strings.Builder
	for _, step := range numeralSteps {
		for n >= step.value {
			b.WriteString(step.symbol)
			n -= step.value
		}
	}
	return b.String()
}

// Books returns the numerals I through L with their ordinals, in order.
func Books() []Book {
	books := make([]Book, 0, MaxBook)
	for i := 1; i <= MaxBook; i++ {
		books = append(books, Book{Ordinal: i, Numeral: ToRoman(i)})
	}
	return books
}

// BookOrdinal returns the ordinal of a canonical book numeral.
func BookOrdinal(numeral string) (int, bool) {
	n, ok := bookOrdinals[numeral]
	return n, ok
}
