// MsHoa Learning | 2026
// templates.go

package email

// All templates share one layout-free HTML body. Subjects and copy are
// Vietnamese, matching the audience of the platform.
const mailTemplates = `
{{define "verification"}}
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2 style="color:#c0392b">MsHoa Learning</h2>
  <p>Xin chào {{.Name}},</p>
  <p>Cảm ơn bạn đã đăng ký. Nhấn vào nút bên dưới để xác thực địa chỉ
  email của bạn:</p>
  <p style="text-align:center;margin:24px 0">
    <a href="{{.Link}}" style="background:#c0392b;color:#fff;padding:12px 28px;text-decoration:none;border-radius:4px">Xác thực email</a>
  </p>
  <p>Nếu bạn không tạo tài khoản này, hãy bỏ qua email này.</p>
</div>
{{end}}

{{define "welcome"}}
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2 style="color:#c0392b">MsHoa Learning</h2>
  <p>Xin chào {{.Name}},</p>
  <p>Tài khoản của bạn đã được xác thực. Chúc bạn học tiếng Trung thật
  hiệu quả!</p>
  <p style="text-align:center;margin:24px 0">
    <a href="{{.Link}}" style="background:#c0392b;color:#fff;padding:12px 28px;text-decoration:none;border-radius:4px">Khám phá khóa học</a>
  </p>
</div>
{{end}}

{{define "password_reset"}}
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2 style="color:#c0392b">MsHoa Learning</h2>
  <p>Xin chào {{.Name}},</p>
  <p>Chúng tôi nhận được yêu cầu đặt lại mật khẩu cho tài khoản của
  bạn. Liên kết có hiệu lực trong 1 giờ:</p>
  <p style="text-align:center;margin:24px 0">
    <a href="{{.Link}}" style="background:#c0392b;color:#fff;padding:12px 28px;text-decoration:none;border-radius:4px">Đặt lại mật khẩu</a>
  </p>
  <p>Nếu bạn không yêu cầu, hãy bỏ qua email này — mật khẩu của bạn
  không thay đổi.</p>
</div>
{{end}}

{{define "receipt"}}
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2 style="color:#c0392b">MsHoa Learning</h2>
  <p>Xin chào {{.Name}},</p>
  <p>Chúng tôi đã nhận được thanh toán của bạn:</p>
  <table style="width:100%;border-collapse:collapse">
    <tr>
      <td style="padding:8px;border-bottom:1px solid #eee">Sản phẩm</td>
      <td style="padding:8px;border-bottom:1px solid #eee">{{.Item}}</td>
    </tr>
    <tr>
      <td style="padding:8px;border-bottom:1px solid #eee">Số tiền</td>
      <td style="padding:8px;border-bottom:1px solid #eee">{{.Amount}}₫</td>
    </tr>
    <tr>
      <td style="padding:8px">Mã giao dịch</td>
      <td style="padding:8px">{{.PaymentID}}</td>
    </tr>
  </table>
  <p>Cảm ơn bạn đã tin tưởng MsHoa Learning!</p>
</div>
{{end}}
`
