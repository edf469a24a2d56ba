package crm

import "github.com/hupe1980/loanmesh/core"

// DemoCustomers is the built-in customer book used when no file is
// configured.
var DemoCustomers = []core.CustomerProfile{
	{
		ID: "CUST001", Name: "Rahul Sharma", Phone: "9876543210", Email: "rahul.sharma@example.com",
		Address: "12 MG Road, Indiranagar", City: "Bengaluru", Pincode: "560038",
		DOB: "1990-05-17", PAN: "ABCPS1234K", KYCStatus: "verified",
		CreditScore: 780, PreApprovedLimit: 500000, MonthlySalary: 85000, ExistingEMI: 5000,
	},
	{
		ID: "CUST002", Name: "Priya Patel", Phone: "9823456701", Email: "priya.patel@example.com",
		Address: "4 Linking Road, Bandra West", City: "Mumbai", Pincode: "400050",
		DOB: "1988-11-02", PAN: "BCDPP2345L", KYCStatus: "verified",
		CreditScore: 820, PreApprovedLimit: 800000, MonthlySalary: 140000,
	},
	{
		ID: "CUST003", Name: "Amit Verma", Phone: "9811122233", Email: "amit.verma@example.com",
		Address: "Sector 21, Block C", City: "Noida", Pincode: "201301",
		DOB: "1994-02-28", PAN: "CDEPV3456M", KYCStatus: "pending",
		CreditScore: 720, PreApprovedLimit: 200000, MonthlySalary: 55000, ExistingEMI: 12000,
	},
	{
		ID: "CUST004", Name: "Sneha Iyer", Phone: "9900112233", Email: "sneha.iyer@example.com",
		Address: "7 Park Street", City: "Kolkata", Pincode: "700016",
		DOB: "1992-07-09", PAN: "DEFPI4567N", KYCStatus: "verified",
		CreditScore: 650, PreApprovedLimit: 100000, MonthlySalary: 40000, ExistingEMI: 8000,
	},
	{
		ID: "CUST005", Name: "Vikram Singh", Phone: "9876501234", Email: "vikram.singh@example.com",
		Address: "22 Civil Lines", City: "Jaipur", Pincode: "302006",
		DOB: "1985-12-15", PAN: "EFGPS5678P", KYCStatus: "verified",
		CreditScore: 760, PreApprovedLimit: 300000, MonthlySalary: 95000, ExistingEMI: 15000,
	},
}
