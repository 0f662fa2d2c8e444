package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectList(t *testing.T) {
	t.Parallel()
	def := []string{"Data Structures"}
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty uses default", in: "", want: def},
		{name: "blank uses default", in: "   ", want: def},
		{name: "split and trim", in: "DBMS, OS ,,CN", want: []string{"DBMS", "OS", "CN"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subjectList(tt.in, def))
		})
	}
}
