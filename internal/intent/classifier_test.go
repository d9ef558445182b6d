package intent

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"Hello there", Greeting},
		{"good morning!", Greeting},
		{"can you help me find something", Help},
		{"add this to my cart", Cart},
		{"I want to buy shoes", Cart},
		{"any discount deals today?", Offers},
		{"show me party wear under 3000", Browse},
		{"what do you have in jeans", Browse},
		{"specifications for the blue kurta", Info},
		{"details on the denim jacket", Info},
		{"red dress for a wedding", Recommend},
		{"", Recommend},
	}

	for _, tc := range cases {
		if got := Classify(tc.message); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// "hello" outranks the cart keyword later in the message.
	if got := Classify("hello, I want to order jeans"); got != Greeting {
		t.Fatalf("expected greeting, got %q", got)
	}
	// offers outranks browse when both keyword families appear.
	if got := Classify("show me today's offers"); got != Offers {
		t.Fatalf("expected offers, got %q", got)
	}
}

func TestClassifyDefaultsToRecommend(t *testing.T) {
	if got := Classify("something warm for winter evenings"); got != Recommend {
		t.Fatalf("expected recommend fallback, got %q", got)
	}
}
