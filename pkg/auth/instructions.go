package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains where both tokens come from and how to provide them
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "TOKEN SETUP")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "VK access token")
	fmt.Fprintln(w, "  1. Create a standalone app at https://vk.com/apps?act=manage")
	fmt.Fprintln(w, "  2. Request a user token with the 'photos' scope (implicit flow)")
	fmt.Fprintln(w, "  3. Copy the access_token value from the redirect URL")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Yandex.Disk OAuth token")
	fmt.Fprintln(w, "  1. Open https://yandex.ru/dev/disk/poligon/")
	fmt.Fprintln(w, "  2. Press 'Get OAuth token' and copy the value")
	fmt.Fprintln(w)
	ShowEnvHint(w)
	fmt.Fprintln(w, "Or store them once with: vkbackup auth login")
	fmt.Fprintln(w, rule)
}

// ShowEnvHint prints the minimal .env setup
func ShowEnvHint(w io.Writer) {
	fmt.Fprintln(w, "Setup:")
	fmt.Fprintln(w, "  1. Create a .env file next to the program")
	fmt.Fprintln(w, "  2. Add the lines:")
	fmt.Fprintln(w, "       VK_TOKEN=your_vk_token")
	fmt.Fprintln(w, "       YANDEX_TOKEN=your_yandex_token")
	fmt.Fprintln(w, "  3. Run the program again")
	fmt.Fprintln(w)
}
