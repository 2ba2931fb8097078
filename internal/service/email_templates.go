package service

import "fmt"

func welcomeEmailTemplate(name, browseURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Private chefs near you are waiting to cook for your next dinner:
%s

If you have questions, reach out to our support team.

Bon appétit,
The %s Team`, name, browseURL, appName)

	return subject, body
}

func bookingRequestTemplate(chefName, customerName, serviceName, eventDate string, guests int, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("New booking request on %s", appName)
	body := fmt.Sprintf(`Hi %s,

%s would like to book "%s" for %d guests on %s.

Review and confirm the request from your dashboard:
%s

Best,
The %s Team`, chefName, customerName, serviceName, guests, eventDate, dashboardURL, appName)

	return subject, body
}

func bookingStatusTemplate(customerName, serviceName, status, bookingsURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your booking is %s", status)
	body := fmt.Sprintf(`Hi %s,

Your booking for "%s" is now %s.

See the details:
%s

Best,
The %s Team`, customerName, serviceName, status, bookingsURL, appName)

	return subject, body
}

func newsletterWelcomeTemplate(unsubscribeURL, appName string) (string, string) {
	subject := fmt.Sprintf("You're on the %s list", appName)
	body := fmt.Sprintf(`Thanks for subscribing! Expect seasonal menus, new chefs and the occasional recipe.

Changed your mind? Unsubscribe here:
%s

The %s Team`, unsubscribeURL, appName)

	return subject, body
}

func jobApplicationTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("We received your application to cook with %s", appName)
	body := fmt.Sprintf(`Hi %s,

Thanks for applying. Our team reviews every application and will get back to you within a few days.

Best,
The %s Team`, name, appName)

	return subject, body
}
