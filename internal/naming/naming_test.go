package naming_test

import (
	"testing"

	"github.com/mickamy/ormrecord/internal/naming"
)

func TestCamelToSnake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"ID", "id"},
		{"Name", "name"},
		{"CreatedAt", "created_at"},
		{"UserID", "user_id"},
		{"CarTyre", "car_tyre"},
		{"userProfile", "user_profile"},
		{"A", "a"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := naming.CamelToSnake(tt.input)
			if got != tt.want {
				t.Errorf("CamelToSnake(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model  string
		plural bool
		want   string
	}{
		{"Car", false, "car"},
		{"CarTyre", false, "car_tyre"},
		{"Car", true, "cars"},
		{"CarTyre", true, "car_tyres"},
		{"Person", true, "people"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			got := naming.TableName(tt.model, tt.plural)
			if got != tt.want {
				t.Errorf("TableName(%q, %v) = %q, want %q", tt.model, tt.plural, got, tt.want)
			}
			// cached path
			if again := naming.TableName(tt.model, tt.plural); again != got {
				t.Errorf("TableName(%q, %v) second call = %q, want %q", tt.model, tt.plural, again, got)
			}
		})
	}
}

func TestForeignKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		table  string
		plural bool
		want   string
	}{
		{"car", false, "car_id"},
		{"manufactor", false, "manufactor_id"},
		{"data", false, "data_id"},
		{"news", false, "news_id"},
		{"cars", true, "car_id"},
		{"car_tyres", true, "car_tyre_id"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			t.Parallel()

			if got := naming.ForeignKey(tt.table, tt.plural); got != tt.want {
				t.Errorf("ForeignKey(%q, %v) = %q, want %q", tt.table, tt.plural, got, tt.want)
			}
		})
	}
}

func TestJoinModel(t *testing.T) {
	t.Parallel()

	if got := naming.JoinModel("Part", "Car"); got != "CarPart" {
		t.Errorf("JoinModel(Part, Car) = %q, want %q", got, "CarPart")
	}
	if got := naming.JoinModel("Car", "Part"); got != "CarPart" {
		t.Errorf("JoinModel(Car, Part) = %q, want %q", got, "CarPart")
	}
}
