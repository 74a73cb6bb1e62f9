package email

import "fmt"

func textBody(identity, code string) string {
	return fmt.Sprintf(`Dear @%s,

You are receiving this email in response to your verification request.

Your verification code is:

    %s

To complete your verification, submit the code back where you requested it.

Thanks!
`, identity, code)
}

func htmlBody(identity, code string) string {
	return fmt.Sprintf(`<html>
<body>
  <p>Dear @%s,</p>
  <p>You are receiving this email in response to your verification request.</p>
  <p>Your verification code is:</p>
  <h2>%s</h2>
  <p>To complete your verification, submit the code back where you requested it.</p>
  <p>Thanks!</p>
</body>
</html>
`, identity, code)
}
