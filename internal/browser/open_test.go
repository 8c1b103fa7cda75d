package browser

import (
	"reflect"
	"testing"
)

func TestCommand(t *testing.T) {
	const u = "https://accounts.example.com/o/oauth2?x=1"
	tests := []struct {
		name     string
		goos     string
		override string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"darwin", "darwin", "", "open", []string{u}, false},
		{"linux", "linux", "", "xdg-open", []string{u}, false},
		{"windows", "windows", "", "rundll32", []string{"url.dll,FileProtocolHandler", u}, false},
		{"unsupported", "plan9", "", "", nil, true},
		{"override appends url", "linux", "firefox", "firefox", []string{u}, false},
		{"override with flags", "linux", "firefox --new-window", "firefox", []string{"--new-window", u}, false},
		{"override placeholder", "plan9", "w3m %s", "w3m", []string{u}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := command(tt.goos, tt.override, u)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("command() = %q %v, want %q %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}
